// Command prefstack compiles layered preference sets into a canonical
// user.js.
//
// Usage:
//
//	prefstack <command> [arguments]
//
// Commands:
//
//	parse       Parse one layer and print its entries with positions
//	merge       Merge layers and print the effective set with provenance
//	validate    Check layers for duplicates, type conflicts and dead overrides
//	emit        Merge layers and write a canonical user.js
//	build       Compile the layers listed in prefstack.toml
//	watch       Rebuild whenever a layer or the schema changes
//	version     Show version information
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yacchi/prefstack/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Main(ctx)
	stop()
	os.Exit(code)
}
