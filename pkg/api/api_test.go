package api

import (
	"encoding/json"
	"net/url"
	"strconv"
	"testing"
	"time"

	"curbdb/pkg/api/auth"
	"curbdb/pkg/api/router"
	"curbdb/pkg/models"
	"curbdb/pkg/service"
	"curbdb/pkg/store/db/storedb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

const signingKey = "test-signing-key"

type server struct {
	handler  fasthttp.RequestHandler
	verifier *auth.Verifier
}

func newServer(t *testing.T, rps float64, burst int) *server {
	t.Helper()
	st, err := storedb.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	now := uint64(1_000)
	svc, err := service.New(st, service.Options{Name: "api-test", Clock: func() uint64 { return now }})
	require.NoError(t, err)

	verifier := auth.NewVerifier([]string{signingKey}, "jwt-secret")
	gw := auth.NewGateway(auth.SecConfig{AllowedOrigins: []string{"https://app.example"}, RPS: rps, Burst: burst}, verifier)
	t.Cleanup(gw.Shutdown)
	h := Handler(NewHandlers(svc), gw, func(r *router.Router) {
		r.GET("/healthz", func(ctx *fasthttp.RequestCtx) { router.WriteJSON(ctx, map[string]string{"status": "ok"}) })
	})
	return &server{handler: h, verifier: verifier}
}

func signed(id string) map[string]string {
	return map[string]string{
		"X-User-ID":        id,
		"X-User-Signature": auth.CreateHMACSignature(id, signingKey),
		"X-User-Key":       id + "-pub",
	}
}

func (s *server) do(method, uri, body string, headers map[string]string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBodyString(body)
	}
	for k, v := range headers {
		ctx.Request.Header.Set(k, v)
	}
	s.handler(ctx)
	return ctx
}

func decodeBody(t *testing.T, ctx *fasthttp.RequestCtx, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), v))
}

func TestMutationsRequireCaller(t *testing.T) {
	s := newServer(t, 1000, 1000)

	ctx := s.do("POST", "/v1/join", "", nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())

	bad := map[string]string{"X-User-ID": "alice", "X-User-Signature": "deadbeef"}
	ctx = s.do("POST", "/v1/join", "", bad)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())

	ctx = s.do("POST", "/v1/join", "", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())

	// queries are open
	ctx = s.do("GET", "/v1/groups", "", nil)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}

func TestStatusMapping(t *testing.T) {
	s := newServer(t, 1000, 1000)
	alice, bob := signed("alice"), signed("bob")

	assert.Equal(t, fasthttp.StatusOK, s.do("POST", "/v1/join", "", alice).Response.StatusCode())
	assert.Equal(t, fasthttp.StatusConflict, s.do("POST", "/v1/join", "", alice).Response.StatusCode())
	assert.Equal(t, fasthttp.StatusForbidden, s.do("POST", "/v1/ping", "", bob).Response.StatusCode())

	assert.Equal(t, fasthttp.StatusCreated, s.do("POST", "/v1/groups", `{"name":"dev"}`, alice).Response.StatusCode())
	assert.Equal(t, fasthttp.StatusConflict, s.do("POST", "/v1/groups", `{"name":"dev"}`, alice).Response.StatusCode())
	assert.Equal(t, fasthttp.StatusBadRequest, s.do("POST", "/v1/groups", `{"name":""}`, alice).Response.StatusCode())
	assert.Equal(t, fasthttp.StatusBadRequest, s.do("POST", "/v1/groups", `{`, alice).Response.StatusCode())

	ctx := s.do("POST", "/v1/messages", `{"group":"missing","text":"x","timestamp":1}`, alice)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	ctx = s.do("POST", "/v1/messages", `{"text":"x","timestamp":1}`, alice)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	var e map[string]string
	decodeBody(t, ctx, &e)
	assert.NotEmpty(t, e["error"])

	ctx = s.do("GET", "/v1/groups/nowhere", "", nil)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	ctx = s.do("GET", "/v1/messages?accounts=alice", "", nil)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	ctx = s.do("GET", "/v1/messages?group=general&offset=-1", "", nil)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx = s.do("DELETE", "/v1/groups", "", alice)
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, ctx.Response.StatusCode())
	ctx = s.do("GET", "/v2/nothing", "", nil)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestConversationFlow(t *testing.T) {
	s := newServer(t, 1000, 1000)
	alice, bob := signed("alice"), signed("bob")
	require.Equal(t, fasthttp.StatusOK, s.do("POST", "/v1/join", "", alice).Response.StatusCode())

	ctx := s.do("POST", "/v1/messages", `{"group":"general","text":"hi","timestamp":100}`, alice)
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())
	var sent models.Message
	decodeBody(t, ctx, &sent)
	assert.Equal(t, "alice", sent.Sender)
	assert.Len(t, sent.ID, 64)

	require.Equal(t, fasthttp.StatusOK, s.do("POST", "/v1/join", "", bob).Response.StatusCode())

	ctx = s.do("GET", "/v1/unread/bob", "", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var unread models.UnreadMessageInfo
	decodeBody(t, ctx, &unread)
	assert.Equal(t, 1, unread.Channels["general"].Count)

	ctx = s.do("POST", "/v1/messages/"+sent.ID+"/reactions", `{"reaction":"wave"}`, bob)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var toggled map[string]bool
	decodeBody(t, ctx, &toggled)
	assert.True(t, toggled["added"])

	ctx = s.do("POST", "/v1/messages/read", `{"group":"general","message_id":"`+sent.ID+`"}`, bob)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	ctx = s.do("GET", "/v1/messages?group=general&length=10", "", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var msgs []models.MessageWithThread
	decodeBody(t, ctx, &msgs)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.Reactions{"wave": {"bob"}}, msgs[0].Reactions)

	ctx = s.do("GET", "/v1/keys/bob", "", nil)
	var keys []string
	decodeBody(t, ctx, &keys)
	assert.Equal(t, []string{"bob-pub"}, keys)

	ctx = s.do("GET", "/v1/members?group=general", "", nil)
	var members []models.UserInfo
	decodeBody(t, ctx, &members)
	assert.Len(t, members, 2)

	ctx = s.do("GET", "/v1/info", "", nil)
	var info models.SystemInfo
	decodeBody(t, ctx, &info)
	assert.Equal(t, "api-test", info.Name)
}

func TestBearerToken(t *testing.T) {
	s := newServer(t, 1000, 1000)
	token, err := s.verifier.IssueToken("carol", "carol-pub", time.Hour)
	require.NoError(t, err)
	headers := map[string]string{"Authorization": "Bearer " + token}

	require.Equal(t, fasthttp.StatusOK, s.do("POST", "/v1/join", "", headers).Response.StatusCode())
	ctx := s.do("GET", "/v1/keys/carol", "", nil)
	var keys []string
	decodeBody(t, ctx, &keys)
	assert.Equal(t, []string{"carol-pub"}, keys)

	other := auth.NewVerifier(nil, "another-secret")
	forged, err := other.IssueToken("carol", "", time.Hour)
	require.NoError(t, err)
	ctx = s.do("POST", "/v1/ping", "", map[string]string{"Authorization": "Bearer " + forged})
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestRateLimitAndRequestID(t *testing.T) {
	s := newServer(t, 0.001, 1)
	alice := signed("alice")

	first := s.do("POST", "/v1/join", "", alice)
	assert.Equal(t, fasthttp.StatusOK, first.Response.StatusCode())
	assert.NotEmpty(t, first.Response.Header.Peek("X-Request-Id"))

	second := s.do("POST", "/v1/ping", "", alice)
	assert.Equal(t, fasthttp.StatusTooManyRequests, second.Response.StatusCode())

	// health checks bypass the limiter
	h := s.do("GET", "/healthz", "", map[string]string{"X-Request-Id": "req-1"})
	assert.Equal(t, fasthttp.StatusOK, h.Response.StatusCode())
	assert.Equal(t, "req-1", string(h.Response.Header.Peek("X-Request-Id")))
}

func TestCORS(t *testing.T) {
	s := newServer(t, 1000, 1000)
	ctx := s.do("OPTIONS", "/v1/join", "", map[string]string{"Origin": "https://app.example"})
	assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())
	assert.Equal(t, "https://app.example", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))

	ctx = s.do("OPTIONS", "/v1/join", "", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, ctx.Response.Header.Peek("Access-Control-Allow-Origin"))
}

func TestMessagesWindowAtExtremeLength(t *testing.T) {
	s := newServer(t, 1000, 1000)
	alice := signed("alice")
	require.Equal(t, fasthttp.StatusOK, s.do("POST", "/v1/join", "", alice).Response.StatusCode())
	for i, text := range []string{"one", "two"} {
		body := `{"group":"general","text":"` + text + `","timestamp":` + strconv.Itoa(100+i) + `}`
		require.Equal(t, fasthttp.StatusCreated, s.do("POST", "/v1/messages", body, alice).Response.StatusCode())
	}

	ctx := s.do("GET", "/v1/messages?group=general&offset=1&length=9223372036854775807", "", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var msgs []models.MessageWithThread
	decodeBody(t, ctx, &msgs)
	require.Len(t, msgs, 1)
	assert.Equal(t, "two", msgs[0].Text)

	ctx = s.do("GET", "/v1/messages?group=general&offset=9223372036854775807&length=9223372036854775807", "", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	decodeBody(t, ctx, &msgs)
	assert.Empty(t, msgs)
}

func TestEscapedGroupNames(t *testing.T) {
	s := newServer(t, 1000, 1000)
	alice := signed("alice")
	require.Equal(t, fasthttp.StatusOK, s.do("POST", "/v1/join", "", alice).Response.StatusCode())

	for _, name := range []string{"%41", "50%", "a/b", "x+y"} {
		body, err := json.Marshal(map[string]string{"name": name})
		require.NoError(t, err)
		require.Equal(t, fasthttp.StatusCreated, s.do("POST", "/v1/groups", string(body), alice).Response.StatusCode(), name)

		ctx := s.do("GET", "/v1/groups/"+url.PathEscape(name), "", nil)
		require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), name)

		ctx = s.do("POST", "/v1/groups/"+url.PathEscape(name)+"/leave", "", alice)
		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), name)
	}

	// "A" was never created; "%41" must not resolve to it
	require.Equal(t, fasthttp.StatusCreated, s.do("POST", "/v1/groups", `{"name":"%41"}`, alice).Response.StatusCode())
	assert.Equal(t, fasthttp.StatusNotFound, s.do("GET", "/v1/groups/A", "", nil).Response.StatusCode())
}
