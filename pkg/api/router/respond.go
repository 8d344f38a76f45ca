package router

import (
	"encoding/json"

	"curbdb/pkg/errs"
	"curbdb/pkg/logger"

	"github.com/valyala/fasthttp"
)

// WriteJSON writes a JSON response.
func WriteJSON(ctx *fasthttp.RequestCtx, data any) {
	ctx.Response.Header.Set("Content-Type", "application/json")
	if err := json.NewEncoder(ctx).Encode(data); err != nil {
		logger.Error("response_encode_failed", "path", string(ctx.Path()), "error", err)
	}
}

// WriteJSONError writes a JSON error response.
func WriteJSONError(ctx *fasthttp.RequestCtx, status int, message string) {
	ctx.SetStatusCode(status)
	ctx.Response.Header.Set("Content-Type", "application/json")
	_ = json.NewEncoder(ctx).Encode(map[string]string{"error": message})
}

// WriteJSONOk writes {"ok": true}.
func WriteJSONOk(ctx *fasthttp.RequestCtx) {
	WriteJSON(ctx, map[string]bool{"ok": true})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindInvalidArgument:
		return fasthttp.StatusBadRequest
	case errs.KindNotFound:
		return fasthttp.StatusNotFound
	case errs.KindNotAMember:
		return fasthttp.StatusForbidden
	case errs.KindAlreadyExists, errs.KindAlreadyMember:
		return fasthttp.StatusConflict
	default:
		return fasthttp.StatusInternalServerError
	}
}

// WriteError renders err with the status for its kind. Internal errors are
// logged and masked.
func WriteError(ctx *fasthttp.RequestCtx, err error) {
	status := StatusFor(err)
	if status == fasthttp.StatusInternalServerError {
		logger.Error("request_failed", "path", string(ctx.Path()), "error", err)
		WriteJSONError(ctx, status, "internal error")
		return
	}
	WriteJSONError(ctx, status, err.Error())
}
