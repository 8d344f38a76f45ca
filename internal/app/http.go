package app

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"

	"curbdb/pkg/api/router"
	"curbdb/pkg/logger"
)

// registerHealthChecks adds the health and readiness handlers.
func (a *App) registerHealthChecks(r *router.Router) {
	r.GET("/healthz", a.healthzHandlerFast)
	r.GET("/readyz", a.readyzHandlerFast)
}

// readyzHandlerFast reports whether the store, and redis when enabled, can serve.
func (a *App) readyzHandlerFast(ctx *fasthttp.RequestCtx) {
	if !a.store.Ready() {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		router.WriteJSON(ctx, map[string]string{"status": "not ready"})
		return
	}
	if a.presence != nil {
		pctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := a.presence.Ping(pctx); err != nil {
			logger.Warn("readyz_presence_unhealthy", "error", err)
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			router.WriteJSON(ctx, map[string]string{"status": "presence unhealthy"})
			return
		}
	}
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	router.WriteJSON(ctx, map[string]string{"status": "ok", "version": ver})
}

// healthzHandlerFast handles the /healthz endpoint.
func (a *App) healthzHandlerFast(ctx *fasthttp.RequestCtx) {
	router.WriteJSON(ctx, map[string]string{"status": "ok"})
}

// startHTTP builds and starts the fasthttp server, returning a channel that delivers errors.
func (a *App) startHTTP(_ context.Context) <-chan error {
	apiCfg := a.eff.Config.Server.API

	const (
		readBufferSize       = 64 * 1024        // 64 KiB read buffer per connection
		idleTimeout          = 30 * time.Second // max keep-alive idle duration per connection
		maxKeepaliveDuration = 2 * time.Minute  // max duration for keep-alive connection
	)
	a.srvFast = &fasthttp.Server{
		Handler:              a.handler(),
		ReadBufferSize:       readBufferSize,
		MaxRequestBodySize:   int(apiCfg.MaxBodySize.Int64()),
		ReduceMemoryUsage:    true,
		ReadTimeout:          apiCfg.ReadTimeout.Duration(),
		WriteTimeout:         apiCfg.WriteTimeout.Duration(),
		IdleTimeout:          idleTimeout,
		MaxKeepaliveDuration: maxKeepaliveDuration,
	}

	errCh := make(chan error, 1)
	go func() {
		// plain TCP; TLS is terminated by a proxy
		errCh <- a.srvFast.ListenAndServe(a.eff.Addr)
	}()
	return errCh
}
