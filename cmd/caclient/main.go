// Command caclient is the confidential-asset client's CLI entrypoint. It
// loads configuration (spec §9's immutable Config), wires the chain RPC
// collaborator and the local balance cache, and dispatches one of the seven
// public operations named on the command line to the orchestrator.
//
// Grounded on the teacher's cmd/davinci-sequencer/main.go: load config, init
// logging, validate, build collaborators, run, shut down cleanly on signal
// or command completion.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/moveguard/confidential-core/config"
	"github.com/moveguard/confidential-core/log"
	"github.com/moveguard/confidential-core/orchestrator"
	"github.com/moveguard/confidential-core/state"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log.Level, cfg.Log.Output)
	log.Infof("starting caclient for account %s", cfg.Account)
	account = cfg.Account

	cache, err := state.Open(cfg.Cache.Dir, cfg.Cache.HotCacheLen)
	if err != nil {
		log.Fatalf("failed to open balance cache: %v", err)
	}
	defer cache.Close()

	client, err := newHTTPChainClient(cfg.RPC)
	if err != nil {
		log.Fatalf("failed to initialize RPC client: %v", err)
	}

	orch := orchestrator.New(cfg, client, client, cache)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Infof("received signal %s, cancelling in-flight operation", sig)
		cancel()
	}()

	args := flagArgs()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	if err := dispatch(ctx, orch, args[0], args[1:]); err != nil {
		log.Fatalf("%s failed: %v", args[0], err)
	}
}
