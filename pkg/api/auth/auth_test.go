package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func request(headers map[string]string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/v1/join")
	for k, v := range headers {
		ctx.Request.Header.Set(k, v)
	}
	return ctx
}

func TestResolveSignedHeaders(t *testing.T) {
	v := NewVerifier([]string{"old", "new"}, "")

	id, ok, err := v.Resolve(request(map[string]string{
		"X-User-ID":        "alice",
		"X-User-Signature": CreateHMACSignature("alice", "new"),
		"X-User-Key":       "pk",
	}))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Identity{ID: "alice", Key: "pk"}, id)

	_, ok, err = v.Resolve(request(nil))
	assert.NoError(t, err)
	assert.False(t, ok)

	_, _, err = v.Resolve(request(map[string]string{"X-User-ID": "alice"}))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, _, err = v.Resolve(request(map[string]string{
		"X-User-ID":        "alice",
		"X-User-Signature": CreateHMACSignature("alice", "unknown"),
	}))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestResolveBearer(t *testing.T) {
	v := NewVerifier(nil, "secret")
	token, err := v.IssueToken("bob", "bk", time.Minute)
	require.NoError(t, err)

	id, ok, err := v.Resolve(request(map[string]string{"Authorization": "Bearer " + token}))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Identity{ID: "bob", Key: "bk"}, id)

	expired, err := v.IssueToken("bob", "", -time.Minute)
	require.NoError(t, err)
	_, _, err = v.Resolve(request(map[string]string{"Authorization": "Bearer " + expired}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = v.Resolve(request(map[string]string{"Authorization": "Basic abc"}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewVerifier(nil, "").IssueToken("bob", "", time.Minute)
	assert.Error(t, err)
}

func TestLimiterPoolEvicts(t *testing.T) {
	p := newLimiterPool(1, 1)
	defer p.Shutdown()

	assert.True(t, p.Allow("a"))
	assert.False(t, p.Allow("a"))
	assert.True(t, p.Allow("b"))

	assert.Equal(t, 2, p.evict(time.Now().Add(time.Second)))
	assert.True(t, p.Allow("a"))
}
