package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg := DefaultConfig()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	store, err := NewDirStore(cfg.Directory)
	if err != nil {
		return err
	}
	printBanner(os.Stderr, &cfg, store.Root())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// A second signal gets the default behaviour and kills the process.
	context.AfterFunc(ctx, stop)
	return NewServer(cfg, store, log).ListenAndServe(ctx)
}
