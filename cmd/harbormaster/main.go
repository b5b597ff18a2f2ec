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
	settingsPath := flag.String("settings", "", "override settings file path (optional)")
	apiBind := flag.String("api", "", "back-office host:port (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath:   *configPath,
		SettingsPath: *settingsPath,
		APIBind:      *apiBind,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "harbormaster: %v\n", err)
		return 1
	}
	return 0
}
