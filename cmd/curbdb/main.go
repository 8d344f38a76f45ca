package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"curbdb/internal/app"
	"curbdb/pkg/config"
	"curbdb/pkg/logger"
	"curbdb/pkg/state"
	"curbdb/pkg/state/shutdown"

	"github.com/joho/godotenv"
)

// set build metadata
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// load .env file if present
	_ = godotenv.Load(".env")

	flags, err := config.ParseConfigFlags(os.Args[1:])
	if err != nil {
		shutdown.Abort("invalid flags", err)
	}

	// file, then env, then flags
	eff, err := config.LoadEffectiveConfig(flags)
	if err != nil {
		shutdown.Abort("failed to build effective config", err)
	}

	if err := config.ValidateConfig(eff); err != nil {
		shutdown.Abort("invalid configuration", err)
	}

	// initialize logger after config is fully loaded
	logger.Init(eff.Config.Logging.Level, eff.Config.Logging.Format)
	defer logger.Sync()

	logger.Info("effective_config_loaded", "sources", eff.Sources, "addr", eff.Addr, "db_path", eff.DBPath)
	logger.Info("system_logical_cores", "logical_cores", runtime.NumCPU())

	snapDir := ""
	if eff.Config.Snapshot.Enabled {
		snapDir = eff.Config.Snapshot.Dir
	}
	if err := state.Init(eff.DBPath, snapDir); err != nil {
		logger.Error("state_dirs_setup_failed", "error", err)
		shutdown.Abort(fmt.Sprintf("failed to ensure state directories under %s", eff.DBPath), err)
	}

	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("failed to initialize app", err)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("app run failed", err)
	}

	// bounded so teardown cannot hang forever
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer shutdownCancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
}
