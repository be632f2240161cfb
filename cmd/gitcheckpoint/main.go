package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bashhack/gitcheckpoint/internal/config"
)

// Version information - injected at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	versionInfo := config.VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	app := NewDefaultApp(versionInfo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	code := Execute(ctx, app, os.Args[1:])
	stop()

	if err := app.Close(); err != nil {
		_, _ = fmt.Fprintf(app.Stderr, "❌ Error during cleanup: %v\n", err)
	}
	os.Exit(code)
}
