package logger

import (
	"strings"

	"github.com/valyala/fasthttp"
)

// credential headers never logged in full
var redactedHeaders = map[string]bool{
	"authorization":    true,
	"x-user-signature": true,
	"cookie":           true,
}

// SafeHeadersFast renders request headers as "k=v; ..." with credentials
// replaced by their first four characters.
func SafeHeadersFast(ctx *fasthttp.RequestCtx) string {
	parts := make([]string, 0)
	ctx.Request.Header.VisitAll(func(k, v []byte) {
		key := string(k)
		parts = append(parts, key+"="+redactHeaderValue(key, string(v)))
	})
	return strings.Join(parts, "; ")
}

func redactHeaderValue(key, val string) string {
	if !redactedHeaders[strings.ToLower(key)] {
		return val
	}
	if len(val) <= 4 {
		return "<redacted>"
	}
	return val[:4] + "…<redacted>"
}
