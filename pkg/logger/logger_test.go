package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func TestSafeHeadersRedactsCredentials(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("Authorization", "Bearer secret-token")
	ctx.Request.Header.Set("X-User-ID", "alice")

	out := SafeHeadersFast(ctx)
	assert.Contains(t, out, "X-User-Id=alice")
	assert.Contains(t, out, "Authorization=Bear…<redacted>")
	assert.False(t, strings.Contains(out, "secret-token"))
}

func TestPreviewTruncates(t *testing.T) {
	long := strings.Repeat("x", 200)
	assert.Less(t, len(Preview(long)), 200)
	assert.Equal(t, "short", Preview("short"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLevel("debug").String())
	assert.Equal(t, "WARN", ParseLevel("warn").String())
	assert.Equal(t, "INFO", ParseLevel("bogus").String())
}
