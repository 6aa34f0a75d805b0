/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: respkv/cmd/respkv-server/main.go
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akashmaji946/respkv/internal/config"
	"github.com/akashmaji946/respkv/internal/diagnostics"
	"github.com/akashmaji946/respkv/internal/expiry"
	"github.com/akashmaji946/respkv/internal/logging"
	"github.com/akashmaji946/respkv/internal/server"
	"github.com/akashmaji946/respkv/internal/store"
)

const asciiArt = `
  ____ ___  ____  ____  _  ____   __
 |  _ \ __||  __|| __ || |/ /\ \ / /
 | |_) |_ \| _|  |  _/ | /   \\ V /
 |  _ <___||____||_|   |_|\_\ |_|
`

func main() {
	fmt.Println(">>> respkv-server <<<")
	fmt.Println(asciiArt)

	log := logging.New()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Error("configuration error: %v", err)
		os.Exit(1)
	}

	s := store.New()
	sched := expiry.New(s, log)

	ctx, cancel := context.WithCancel(context.Background())

	go sched.Run(ctx)
	go diagnostics.Run(ctx, log, diagnostics.DefaultInterval)

	ln, err := server.Listen(cfg.Port, s, sched, log)
	if err != nil {
		log.Error("cannot start listener: %v", err)
		cancel()
		os.Exit(1)
	}
	log.Info("listening on %s", ln.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("received signal %v, starting graceful shutdown", sig)
		cancel()
	}()

	if err := ln.Serve(ctx); err != nil {
		log.Error("listener stopped: %v", err)
	}

	log.Info("graceful shutdown complete")
}
