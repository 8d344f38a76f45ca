// Package api serves the store over HTTP.
package api

import (
	"strconv"

	"curbdb/pkg/api/auth"
	"curbdb/pkg/api/router"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var httpRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "curbdb",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method and status.",
	},
	[]string{"method", "status"},
)

func init() {
	prometheus.MustRegister(httpRequests)
}

// RegisterRoutes wires all API routes onto the provided router.
func RegisterRoutes(r *router.Router, h *Handlers) {
	// membership
	r.POST("/v1/join", h.Join)
	r.POST("/v1/ping", h.Ping)
	r.GET("/v1/members", h.GetMembers)
	r.GET("/v1/keys/{account}", h.GetKeys)

	// groups
	r.POST("/v1/groups", h.CreateGroup)
	r.GET("/v1/groups", h.GetGroups)
	r.GET("/v1/groups/{name}", h.ChannelInfo)
	r.POST("/v1/groups/{name}/join", h.JoinGroup)
	r.POST("/v1/groups/{name}/leave", h.LeaveGroup)
	r.POST("/v1/groups/{name}/invite", h.GroupInvite)

	// messages
	r.POST("/v1/messages", h.SendMessage)
	r.GET("/v1/messages", h.GetMessages)
	r.POST("/v1/messages/read", h.ReadMessage)
	r.POST("/v1/messages/{id}/reactions", h.ToggleReaction)
	r.GET("/v1/unread/{account}", h.UnreadMessages)

	r.GET("/v1/info", h.Info)
	r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
}

// Handler builds the full request pipeline: router, routes and gateway.
// extra registers additional routes such as health checks.
func Handler(h *Handlers, gw *auth.Gateway, extra func(r *router.Router)) fasthttp.RequestHandler {
	r := router.New()
	RegisterRoutes(r, h)
	if extra != nil {
		extra(r)
	}
	r.NotFound(func(ctx *fasthttp.RequestCtx) {
		router.WriteJSONError(ctx, fasthttp.StatusNotFound, "not found")
	})
	next := gw.Middleware(r.Handler)
	return func(ctx *fasthttp.RequestCtx) {
		next(ctx)
		httpRequests.WithLabelValues(string(ctx.Method()), strconv.Itoa(ctx.Response.StatusCode())).Inc()
	}
}
