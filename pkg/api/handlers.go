package api

import (
	"encoding/json"
	"strconv"
	"strings"

	"curbdb/pkg/api/auth"
	"curbdb/pkg/api/router"
	"curbdb/pkg/errs"
	"curbdb/pkg/service"

	"github.com/valyala/fasthttp"
)

// Handlers adapts HTTP requests onto the service entry points.
type Handlers struct {
	svc *service.Service
}

func NewHandlers(svc *service.Service) *Handlers {
	return &Handlers{svc: svc}
}

type groupBody struct {
	Name string `json:"name"`
}

type inviteBody struct {
	Account string `json:"account"`
}

type sendBody struct {
	Account   *string `json:"account"`
	Group     *string `json:"group"`
	Parent    *string `json:"parent"`
	Text      string  `json:"text"`
	Timestamp *uint64 `json:"timestamp"`
}

type readBody struct {
	Account   *string `json:"account"`
	Group     *string `json:"group"`
	MessageID string  `json:"message_id"`
}

type reactionBody struct {
	Reaction string `json:"reaction"`
}

// caller resolves the authenticated caller or writes 401.
func (h *Handlers) caller(ctx *fasthttp.RequestCtx) (service.Caller, bool) {
	id, ok := auth.CallerFrom(ctx)
	if !ok {
		router.WriteJSONError(ctx, fasthttp.StatusUnauthorized, "authentication required")
		return service.Caller{}, false
	}
	return service.Caller{ID: id.ID, Key: id.Key, Now: h.svc.Now()}, true
}

// decode reads the JSON body into v or writes 400. An empty body decodes
// to the zero value.
func decode(ctx *fasthttp.RequestCtx, v any) bool {
	body := ctx.PostBody()
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, v); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func queryString(ctx *fasthttp.RequestCtx, name string) *string {
	v := strings.TrimSpace(string(ctx.QueryArgs().Peek(name)))
	if v == "" {
		return nil
	}
	return &v
}

func queryInt(ctx *fasthttp.RequestCtx, name string) (*int, error) {
	v := queryString(ctx, name)
	if v == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(*v)
	if err != nil || n < 0 {
		return nil, errs.InvalidArgument("%s must be a non-negative integer", name)
	}
	return &n, nil
}

func (h *Handlers) Join(ctx *fasthttp.RequestCtx) {
	c, ok := h.caller(ctx)
	if !ok {
		return
	}
	if err := h.svc.Join(c); err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSONOk(ctx)
}

func (h *Handlers) Ping(ctx *fasthttp.RequestCtx) {
	c, ok := h.caller(ctx)
	if !ok {
		return
	}
	if err := h.svc.Ping(c); err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSONOk(ctx)
}

func (h *Handlers) CreateGroup(ctx *fasthttp.RequestCtx) {
	c, ok := h.caller(ctx)
	if !ok {
		return
	}
	var body groupBody
	if !decode(ctx, &body) {
		return
	}
	if err := h.svc.CreateGroup(c, body.Name); err != nil {
		router.WriteError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusCreated)
	router.WriteJSON(ctx, body)
}

func (h *Handlers) JoinGroup(ctx *fasthttp.RequestCtx) {
	c, ok := h.caller(ctx)
	if !ok {
		return
	}
	ch, err := h.svc.JoinGroup(c, router.Param(ctx, "name"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, ch)
}

func (h *Handlers) LeaveGroup(ctx *fasthttp.RequestCtx) {
	c, ok := h.caller(ctx)
	if !ok {
		return
	}
	ch, err := h.svc.LeaveGroup(c, router.Param(ctx, "name"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, ch)
}

func (h *Handlers) GroupInvite(ctx *fasthttp.RequestCtx) {
	c, ok := h.caller(ctx)
	if !ok {
		return
	}
	var body inviteBody
	if !decode(ctx, &body) {
		return
	}
	ch, err := h.svc.GroupInvite(c, router.Param(ctx, "name"), body.Account)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, ch)
}

func (h *Handlers) SendMessage(ctx *fasthttp.RequestCtx) {
	c, ok := h.caller(ctx)
	if !ok {
		return
	}
	var body sendBody
	if !decode(ctx, &body) {
		return
	}
	ts := c.Now
	if body.Timestamp != nil {
		ts = *body.Timestamp
	}
	msg, err := h.svc.SendMessage(c, service.SendRequest{
		Account:   emptyToNil(body.Account),
		Group:     emptyToNil(body.Group),
		Parent:    emptyToNil(body.Parent),
		Text:      body.Text,
		Timestamp: ts,
	})
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusCreated)
	router.WriteJSON(ctx, msg)
}

func (h *Handlers) ReadMessage(ctx *fasthttp.RequestCtx) {
	c, ok := h.caller(ctx)
	if !ok {
		return
	}
	var body readBody
	if !decode(ctx, &body) {
		return
	}
	err := h.svc.ReadMessage(c, service.ReadRequest{
		Account:   emptyToNil(body.Account),
		Group:     emptyToNil(body.Group),
		MessageID: body.MessageID,
	})
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSONOk(ctx)
}

func (h *Handlers) ToggleReaction(ctx *fasthttp.RequestCtx) {
	c, ok := h.caller(ctx)
	if !ok {
		return
	}
	var body reactionBody
	if !decode(ctx, &body) {
		return
	}
	added, err := h.svc.ToggleReaction(c, router.Param(ctx, "id"), body.Reaction)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, map[string]bool{"added": added})
}

func (h *Handlers) UnreadMessages(ctx *fasthttp.RequestCtx) {
	info, err := h.svc.UnreadMessages(router.Param(ctx, "account"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, info)
}

func (h *Handlers) GetMessages(ctx *fasthttp.RequestCtx) {
	var q service.MessagesQuery
	if v := queryString(ctx, "accounts"); v != nil {
		parts := strings.Split(*v, ",")
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			router.WriteError(ctx, errs.InvalidArgument("accounts must name exactly two accounts"))
			return
		}
		q.Accounts = &[2]string{strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])}
	}
	q.Group = queryString(ctx, "group")
	var err error
	if q.Offset, err = queryInt(ctx, "offset"); err != nil {
		router.WriteError(ctx, err)
		return
	}
	if q.Length, err = queryInt(ctx, "length"); err != nil {
		router.WriteError(ctx, err)
		return
	}
	msgs, err := h.svc.GetMessages(q)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, msgs)
}

func (h *Handlers) GetMembers(ctx *fasthttp.RequestCtx) {
	members, err := h.svc.GetMembers(queryString(ctx, "group"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, members)
}

func (h *Handlers) GetGroups(ctx *fasthttp.RequestCtx) {
	groups, err := h.svc.GetGroups(queryString(ctx, "account"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, groups)
}

func (h *Handlers) ChannelInfo(ctx *fasthttp.RequestCtx) {
	name := router.Param(ctx, "name")
	meta, err := h.svc.ChannelInfo(name)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	if meta == nil {
		router.WriteError(ctx, errs.NotFound("group %q does not exist", name))
		return
	}
	router.WriteJSON(ctx, meta)
}

func (h *Handlers) GetKeys(ctx *fasthttp.RequestCtx) {
	keys, err := h.svc.GetKeys(router.Param(ctx, "account"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, keys)
}

func (h *Handlers) Info(ctx *fasthttp.RequestCtx) {
	info, err := h.svc.Info()
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, info)
}
