package layer

import (
	"github.com/yacchi/prefstack/source"
	"github.com/yacchi/prefstack/watcher"
)

// Watch returns a watcher reporting new contents of src. The watcher is
// not started.
//
// A source implementing source.WatchableSource supplies its own watcher
// and ignores opts. Any other source is polled through its Load method
// with the given options.
func Watch(src source.Source, opts ...watcher.WatchConfigOption) (watcher.Watcher, error) {
	if ws, ok := src.(source.WatchableSource); ok {
		return ws.Watch()
	}
	return watcher.NewPolling(src.Load, opts...), nil
}

func watcherTypeOf(src source.Source) watcher.Type {
	ws, ok := src.(source.WatchableSource)
	if !ok {
		return watcher.TypePolling
	}
	w, err := ws.Watch()
	if err != nil {
		return ""
	}
	return w.Type()
}
