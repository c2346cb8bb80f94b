// Package main provides the pairnoded daemon - a single AMM pair served
// over JSON-RPC and WebSocket.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/klingon-exchange/klingon-pair/internal/config"
	"github.com/klingon-exchange/klingon-pair/internal/gateway"
	"github.com/klingon-exchange/klingon-pair/internal/ledger"
	"github.com/klingon-exchange/klingon-pair/internal/pair"
	"github.com/klingon-exchange/klingon-pair/internal/pairevents"
	"github.com/klingon-exchange/klingon-pair/internal/pairstate"
	"github.com/klingon-exchange/klingon-pair/internal/pairstore"
	"github.com/klingon-exchange/klingon-pair/internal/rpc"
	"github.com/klingon-exchange/klingon-pair/internal/token/sim"
	"github.com/klingon-exchange/klingon-pair/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

func main() {
	var (
		dataDir     = flag.String("data-dir", "~/.klingon-pair", "Data directory")
		configFile  = flag.String("config", "", "Config file path; config.yaml in this path's directory is loaded, whatever the file name (default: <data-dir>/config.yaml)")
		rpcAddr     = flag.String("rpc", "", "JSON-RPC listen address, overrides config")
		testnet     = flag.Bool("testnet", false, "Run on testnet (separate data directory)")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	log := logging.New(&logging.Config{Level: *logLevel, TimeFormat: time.TimeOnly})
	logging.SetDefault(log)

	if *showVersion {
		log.Infof("pairnoded %s (commit: %s)", version, commit)
		os.Exit(0)
	}

	effectiveDataDir := *dataDir
	if *testnet {
		effectiveDataDir = filepath.Join(*dataDir, "testnet")
	}

	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadConfig(filepath.Dir(*configFile))
	} else {
		cfg, err = config.LoadConfig(effectiveDataDir)
	}
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	if *rpcAddr != "" {
		cfg.RPC.ListenAddr = *rpcAddr
	}
	cfg.Logging.Level = *logLevel
	cfg.Storage.DataDir = effectiveDataDir
	if *testnet {
		cfg.NetworkType = config.Testnet
	} else {
		cfg.NetworkType = config.Mainnet
	}

	log = logging.New(&logging.Config{Level: cfg.Logging.Level, TimeFormat: time.TimeOnly})
	logging.SetDefault(log)

	log.Info("Config loaded", "path", config.ConfigPath(effectiveDataDir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := pairstore.New(&pairstore.Config{DataDir: cfg.Storage.DataDir})
	if err != nil {
		log.Fatal("Failed to initialize storage", "error", err)
	}
	defer store.Close()
	log.Info("Storage initialized", "path", cfg.Storage.DataDir)

	// A real deployment calls through a transport-backed token.Client; none
	// has been built yet, so the daemon runs against the in-memory sim
	// client until one exists (see DESIGN.md).
	tokenClient := sim.New()

	gw := gateway.New(tokenClient, cfg.Gateway.ReplyTimeout, log)

	state := pairstate.New(
		cfg.Identity.Token0, cfg.Identity.Token1,
		cfg.Identity.FeeTo, cfg.Identity.Treasury,
		cfg.Identity.Admin, cfg.Identity.Factory,
		pairstate.Config{
			GasForTokenOps:     cfg.Gateway.GasForTokenOps,
			GasForReplyDeposit: cfg.Gateway.GasForReplyDeposit,
			ReplyTimeout:       cfg.Gateway.ReplyTimeout,
			GasForFullTx:       cfg.Gateway.GasForFullTx,
		},
	)
	led := ledger.New()
	events := pairevents.New(log)

	if found, err := store.LoadState(state, led, gw.Ops()); err != nil {
		log.Fatal("Failed to load persisted state", "error", err)
	} else if found {
		r0, r1 := state.Reserves()
		log.Info("Recovered persisted pair state", "reserve0", r0.Dec(), "reserve1", r1.Dec(), "migrated", state.IsMigrated())
	} else {
		log.Info("No persisted state found, starting fresh")
	}

	p := pair.New(state, led, gw, events, log)

	rpcServer := rpc.NewServer(p, store)
	if err := rpcServer.Start(cfg.RPC.ListenAddr); err != nil {
		log.Fatal("Failed to start RPC server", "error", err)
	}

	printBanner(log, cfg, version)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	log.Info("Shutting down...")
	cancel()

	if err := rpcServer.Stop(); err != nil {
		log.Error("Error stopping RPC server", "error", err)
	}

	log.Info("Goodbye!")
}

func printBanner(log *logging.Logger, cfg *config.Config, version string) {
	networkLabel := "mainnet"
	if cfg.IsTestnet() {
		networkLabel = "TESTNET"
	}

	log.Info("")
	log.Info("=================================================")
	log.Infof("  Klingon Pair Node (%s)", networkLabel)
	log.Infof("  Version: %s", version)
	log.Info("=================================================")
	log.Info("")
	log.Infof("  Token0: %s", cfg.Identity.Token0)
	log.Infof("  Token1: %s", cfg.Identity.Token1)
	log.Info("")
	log.Infof("  RPC: http://%s", cfg.RPC.ListenAddr)
	log.Infof("  WS:  ws://%s/ws", cfg.RPC.ListenAddr)
	log.Info("")
	log.Infof("  Data dir: %s", cfg.Storage.DataDir)
	log.Info("=================================================")
	log.Info("")
}
