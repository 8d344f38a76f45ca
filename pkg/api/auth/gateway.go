// Package auth authenticates callers and applies the per-request policies:
// CORS, request ids and rate limiting.
package auth

import (
	"net"
	"strings"
	"time"

	"curbdb/pkg/api/router"
	"curbdb/pkg/logger"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// user value keys set by the middleware
const (
	CallerIDKey  = "caller_id"
	CallerKeyKey = "caller_key"
	RequestIDKey = "request_id"
)

// security config
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
}

// Gateway wraps handlers with the request policies.
type Gateway struct {
	cfg      SecConfig
	verifier *Verifier
	limiters *limiterPool
}

func NewGateway(cfg SecConfig, verifier *Verifier) *Gateway {
	return &Gateway{cfg: cfg, verifier: verifier, limiters: newLimiterPool(cfg.RPS, cfg.Burst)}
}

// Shutdown releases background resources.
func (g *Gateway) Shutdown() {
	g.limiters.Shutdown()
}

// Middleware authenticates the caller when credentials are present and
// stores it under CallerIDKey. Handlers decide whether a caller is required.
func (g *Gateway) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		reqID := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-Id")))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx.SetUserValue(RequestIDKey, reqID)
		ctx.Response.Header.Set("X-Request-Id", reqID)
		defer func() {
			logger.Debug("http_request",
				"request_id", reqID,
				"method", string(ctx.Method()),
				"path", string(ctx.Path()),
				"status", ctx.Response.StatusCode(),
				"duration", time.Since(start),
				"headers", logger.SafeHeadersFast(ctx),
			)
		}()
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("http_handler_panic", "request_id", reqID, "path", string(ctx.Path()), "panic", rec)
				ctx.Response.ResetBody()
				router.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "internal error")
			}
		}()

		// cors headers and handle options shortcut
		origin := string(ctx.Request.Header.Peek("Origin"))
		if origin != "" && originAllowed(origin, g.cfg.AllowedOrigins) {
			ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
			ctx.Response.Header.Set("Vary", "Origin")
			ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			ctx.Response.Header.Set("Access-Control-Max-Age", "600")
			ctx.Response.Header.Set("Access-Control-Allow-Headers", "Authorization,Content-Type,X-User-ID,X-User-Signature,X-User-Key,X-Request-Id")
			ctx.Response.Header.Set("Access-Control-Expose-Headers", "X-Request-Id")
		}
		if string(ctx.Method()) == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		if publicAllowedPath(ctx) {
			next(ctx)
			return
		}

		id, ok, err := g.verifier.Resolve(ctx)
		if err != nil {
			logger.Warn("request_unauthorized", "request_id", reqID, "path", string(ctx.Path()), "remote", clientIP(ctx), "error", err)
			router.WriteJSONError(ctx, fasthttp.StatusUnauthorized, err.Error())
			return
		}

		// rate limiting per caller, or per ip when anonymous
		limitKey := "ip:" + clientIP(ctx)
		if ok {
			limitKey = "id:" + id.ID
		}
		if !g.limiters.Allow(limitKey) {
			logger.Warn("rate_limited", "request_id", reqID, "key", limitKey, "path", string(ctx.Path()))
			router.WriteJSONError(ctx, fasthttp.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		if ok {
			ctx.SetUserValue(CallerIDKey, id.ID)
			ctx.SetUserValue(CallerKeyKey, id.Key)
		}
		next(ctx)
	}
}

// CallerFrom returns the authenticated caller stored by Middleware.
func CallerFrom(ctx *fasthttp.RequestCtx) (Identity, bool) {
	id, _ := ctx.UserValue(CallerIDKey).(string)
	if id == "" {
		return Identity{}, false
	}
	key, _ := ctx.UserValue(CallerKeyKey).(string)
	return Identity{ID: id, Key: key}, true
}

func clientIP(ctx *fasthttp.RequestCtx) string {
	host := ctx.RemoteAddr().String()
	h, _, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	return h
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func publicAllowedPath(ctx *fasthttp.RequestCtx) bool {
	if string(ctx.Method()) != fasthttp.MethodGet {
		return false
	}
	switch string(ctx.Path()) {
	case "/healthz", "/readyz", "/metrics":
		return true
	}
	return false
}
