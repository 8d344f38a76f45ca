package app

import (
	"context"

	"curbdb/pkg/logger"
)

// Shutdown stops accepting requests, drains pending events and closes the
// store. It returns the first error encountered; later steps still run.
func (a *App) Shutdown(ctx context.Context) error {
	a.state = "shutting_down"
	var first error
	keep := func(step string, err error) {
		if err == nil {
			return
		}
		logger.Error("shutdown_step_failed", "step", step, "error", err)
		if first == nil {
			first = err
		}
	}

	if a.srvFast != nil {
		done := make(chan error, 1)
		go func() { done <- a.srvFast.Shutdown() }()
		select {
		case err := <-done:
			keep("http", err)
		case <-ctx.Done():
			keep("http", ctx.Err())
		}
	}
	if a.gateway != nil {
		a.gateway.Shutdown()
	}
	if a.snapshots != nil {
		a.snapshots.Stop()
	}
	keep("events", a.events.Close())
	if a.store != nil {
		keep("sync", a.store.ForceSync())
		keep("store", a.store.Close())
	}

	if first == nil {
		a.state = "stopped"
		logger.Info("shutdown_complete")
	}
	return first
}
