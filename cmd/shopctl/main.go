// cmd/shopctl/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"shopping-assistant/internal/cli"
)

// Set by -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
