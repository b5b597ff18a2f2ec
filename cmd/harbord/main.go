package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harborline/harbormaster/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	listen := flag.String("listen", "", "listen address (optional)")
	demoMode := flag.Bool("demo", false, "serve the demo dataset from memory")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.ServerOptions{
		ConfigPath: *configPath,
		Listen:     *listen,
		Demo:       *demoMode,
	}
	if err := app.Serve(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "harbord: %v\n", err)
		return 1
	}
	return 0
}
