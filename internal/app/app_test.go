package app

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"curbdb/pkg/api/auth"
	"curbdb/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func testConfig(t *testing.T) config.EffectiveConfigResult {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.DBPath = filepath.Join(t.TempDir(), "db")
	cfg.Auth.SigningKeys = []string{"k"}
	cfg.ApplyDefaults()
	return config.EffectiveConfigResult{Config: cfg, Addr: cfg.Addr(), DBPath: cfg.Server.DBPath, Sources: []string{"defaults"}}
}

func get(h fasthttp.RequestHandler, method, uri string, headers map[string]string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	for k, v := range headers {
		ctx.Request.Header.Set(k, v)
	}
	h(ctx)
	return ctx
}

func TestNewServesHealthAndOperations(t *testing.T) {
	a, err := New(testConfig(t), "1.2.3", "abc", "today")
	require.NoError(t, err)
	h := a.handler()

	ctx := get(h, "GET", "/healthz", nil)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	ctx = get(h, "GET", "/readyz", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var ready map[string]string
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &ready))
	assert.Equal(t, "1.2.3", ready["version"])

	alice := map[string]string{"X-User-ID": "alice", "X-User-Signature": auth.CreateHMACSignature("alice", "k")}
	ctx = get(h, "POST", "/v1/join", alice)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	name, err := a.Service().Name()
	require.NoError(t, err)
	assert.Equal(t, "curbdb", name)

	require.NoError(t, a.Shutdown(context.Background()))
	assert.Equal(t, "stopped", a.state)
}

func TestDataSurvivesRestart(t *testing.T) {
	eff := testConfig(t)
	a, err := New(eff, "dev", "none", "unknown")
	require.NoError(t, err)
	created, err := a.Service().CreatedAt()
	require.NoError(t, err)
	require.NoError(t, a.Shutdown(context.Background()))

	b, err := New(eff, "dev", "none", "unknown")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Shutdown(context.Background()) })
	again, err := b.Service().CreatedAt()
	require.NoError(t, err)
	assert.Equal(t, created, again)
}

func TestSnapshotManagerWiredWhenEnabled(t *testing.T) {
	eff := testConfig(t)
	eff.Config.Snapshot.Enabled = true
	eff.Config.Snapshot.Dir = filepath.Join(t.TempDir(), "snaps")
	a, err := New(eff, "dev", "none", "unknown")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	require.NotNil(t, a.snapshots)
	path, err := a.snapshots.RunNow()
	require.NoError(t, err)
	assert.DirExists(t, path)
}
