// Package fs provides a file system based preference source.
//
// The same Source is used for reading layer files and for writing the
// compiled user.js: Save replaces the target atomically while holding an
// exclusive lock on it, so the host application never sees a partial file.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/yacchi/prefstack/source"
	"github.com/yacchi/prefstack/watcher"
)

type lockFile interface {
	Stat() (os.FileInfo, error)
	ReadAt(p []byte, off int64) (n int, err error)
	Close() error
	Fd() uintptr
}

type tempFile interface {
	Write(p []byte) (n int, err error)
	Sync() error
	Close() error
	Name() string
}

var (
	userHomeDir  = os.UserHomeDir
	osReadFile   = os.ReadFile
	osWriteFile  = os.WriteFile
	osStat       = os.Stat
	osMkdirAll   = os.MkdirAll
	osChmod      = os.Chmod
	osRename     = os.Rename
	osRemove     = os.Remove
	fileLockFunc = fileLock

	openFile = func(name string, flag int, perm os.FileMode) (lockFile, error) {
		return os.OpenFile(name, flag, perm)
	}
	createTemp = func(dir, pattern string) (tempFile, error) {
		return os.CreateTemp(dir, pattern)
	}
)

// fileLock attempts to acquire an exclusive lock on the given file descriptor.
// Returns a function to release the lock. If the filesystem does not support
// locking, the returned unlock is a no-op and err is nil.
func fileLock(fd int) (unlock func(), err error) {
	if err := flockExclusive(fd); err != nil {
		if isLockNotSupportedError(err) {
			return func() {}, nil
		}
		return nil, err
	}
	return func() { flockUnlock(fd) }, nil
}

// Default permission modes.
const (
	DefaultFileMode = 0644
	DefaultDirMode  = 0755
)

// Source loads and saves raw preference data from/to a file.
type Source struct {
	path         string
	searchPaths  []string
	resolvedPath string // cached path after resolution
	fileMode     os.FileMode
	dirMode      os.FileMode
	backupSuffix string
}

// Ensure Source implements the source.WatchableSource interface.
var _ source.WatchableSource = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithFileMode sets the file permission mode used when saving.
// Default is 0644.
func WithFileMode(mode os.FileMode) Option {
	return func(s *Source) {
		s.fileMode = mode
	}
}

// WithDirMode sets the directory permission mode used when creating parent directories.
// Default is 0755.
func WithDirMode(mode os.FileMode) Option {
	return func(s *Source) {
		s.dirMode = mode
	}
}

// WithSearchPaths adds additional paths to search for the file.
// During Load, files are searched in order: primary path first, then search paths.
// The first existing file is used. If no file exists, the primary path is used.
// During Save, the resolved path (found file or primary path) is used.
func WithSearchPaths(paths ...string) Option {
	return func(s *Source) {
		s.searchPaths = append(s.searchPaths, paths...)
	}
}

// WithBackup makes Save copy the previous non-empty contents of the target
// to target+suffix before replacing it, e.g. WithBackup(".bak").
func WithBackup(suffix string) Option {
	return func(s *Source) {
		s.backupSuffix = suffix
	}
}

// New creates a source that reads from and writes to a file.
// The path can be absolute or relative. Tilde (~) expansion is supported.
//
// Example:
//
//	src := fs.New("layers/base.js")
//	out := fs.New("~/.mozilla/firefox/abcd.default/user.js", fs.WithBackup(".bak"))
func New(path string, opts ...Option) *Source {
	s := &Source{
		path:     path,
		fileMode: DefaultFileMode,
		dirMode:  DefaultDirMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the primary path as given to New.
func (s *Source) Path() string {
	return s.path
}

// String returns the resolved path.
func (s *Source) String() string {
	return s.ResolvedPath()
}

// Type returns the source type identifier.
func (s *Source) Type() source.SourceType {
	return source.TypeFS
}

// CanSave returns true because file system sources support saving.
func (s *Source) CanSave() bool {
	return true
}

// Load implements the source.Source interface.
// If search paths are configured, the first existing file is loaded.
// A missing file is reported as *source.NotExistError.
func (s *Source) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolvedPath, originalPath, err := s.resolvePath()
	if err != nil {
		return nil, err
	}

	data, err := osReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, source.NewNotExistError(originalPath, err)
		}
		return nil, fmt.Errorf("failed to read file %q: %w", originalPath, err)
	}

	s.resolvedPath = resolvedPath
	return data, nil
}

// Save implements the source.Source interface with file locking.
// The updateFunc receives current file contents and returns the new contents to write.
//
// The write is performed atomically by writing to a temporary file in the
// target directory, syncing it, then renaming it over the target while an
// exclusive lock on the target is held. Parent directories are created if
// they do not exist.
func (s *Source) Save(ctx context.Context, updateFunc source.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	targetPath := s.resolvedPath
	if targetPath == "" {
		var err error
		targetPath, _, err = s.resolvePath()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(targetPath)
	if err := osMkdirAll(dir, s.dirMode); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}

	lf, err := openFile(targetPath, os.O_RDWR|os.O_CREATE, s.fileMode)
	if err != nil {
		return fmt.Errorf("failed to open file %q for locking: %w", targetPath, err)
	}
	defer lf.Close()

	unlock, err := fileLockFunc(int(lf.Fd()))
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %q: %w", targetPath, err)
	}
	defer unlock()

	var currentData []byte
	stat, err := lf.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file %q: %w", targetPath, err)
	}
	if stat.Size() > 0 {
		currentData = make([]byte, stat.Size())
		if _, err := lf.ReadAt(currentData, 0); err != nil {
			return fmt.Errorf("failed to read current file %q: %w", targetPath, err)
		}
	}

	newData, err := updateFunc(currentData)
	if err != nil {
		return err
	}

	if s.backupSuffix != "" && len(currentData) > 0 {
		if err := osWriteFile(targetPath+s.backupSuffix, currentData, s.fileMode); err != nil {
			return fmt.Errorf("failed to write backup of %q: %w", targetPath, err)
		}
	}

	tmpFile, err := createTemp(dir, ".prefstack-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			osRemove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(newData); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temporary file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := osChmod(tmpPath, s.fileMode); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	// lock is still held here
	if err := osRename(tmpPath, targetPath); err != nil {
		return fmt.Errorf("failed to rename temporary file to %q: %w", targetPath, err)
	}

	success = true
	s.resolvedPath = targetPath
	return nil
}

// WriteFile replaces the file contents with data using Save.
func (s *Source) WriteFile(ctx context.Context, data []byte) error {
	return s.Save(ctx, func([]byte) ([]byte, error) {
		return data, nil
	})
}

// ResolvedPath returns the actual file path being used after resolution.
// This may differ from Path() if a search path was used.
// Returns the expanded primary path if no file has been loaded yet.
func (s *Source) ResolvedPath() string {
	if s.resolvedPath != "" {
		return s.resolvedPath
	}
	expanded, err := expandTilde(s.path)
	if err != nil {
		return s.path
	}
	return expanded
}

// resolvePath finds the first existing file from the search paths.
// Returns (expandedPath, originalPath, error).
// If no file exists, returns the expanded primary path.
func (s *Source) resolvePath() (expanded string, original string, err error) {
	allPaths := make([]string, 0, 1+len(s.searchPaths))
	allPaths = append(allPaths, s.path)
	allPaths = append(allPaths, s.searchPaths...)

	for _, p := range allPaths {
		expanded, err := expandTilde(p)
		if err != nil {
			continue
		}
		if _, statErr := osStat(expanded); statErr == nil {
			return expanded, p, nil
		}
	}

	expanded, err = expandTilde(s.path)
	if err != nil {
		return "", s.path, fmt.Errorf("failed to expand path %q: %w", s.path, err)
	}
	return expanded, s.path, nil
}

// expandTilde expands "~" and "~/path". Other forms are returned unchanged.
func expandTilde(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	homeDir, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand home directory: %w", err)
	}

	if len(path) == 1 {
		return homeDir, nil
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}
	return path, nil
}

// Subscribe implements the watcher.SubscriptionHandler interface.
// It watches the directory containing the file, so atomic writes (temp file
// + rename) and file recreation are observed, and calls notify(nil, nil)
// for every write, create, rename or remove of the file itself.
func (s *Source) Subscribe(ctx context.Context, notify watcher.NotifyFunc) (watcher.StopFunc, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	path := s.ResolvedPath()
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch directory %q: %w", dir, err)
	}

	filename := filepath.Base(path)

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filename {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					notify(nil, nil)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				notify(nil, err)
			case <-ctx.Done():
				return
			}
		}
	}()

	return func(ctx context.Context) error {
		return w.Close()
	}, nil
}

// Watch implements the source.WatchableSource interface.
// Returns a subscription watcher driven by fsnotify that re-reads the file
// on every event and reports only actual content changes.
func (s *Source) Watch() (watcher.Watcher, error) {
	return watcher.NewSubscription(watcher.SubscriptionHandlerFunc(s.Subscribe), s.Load), nil
}
