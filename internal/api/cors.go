package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// corsPolicy is the fixed cross-origin policy for the control API. The API
// binds to loopback by default, so any origin may call it.
type corsPolicy struct {
	origin  string
	methods string
	headers string
	maxAge  string
}

func defaultCORSPolicy() corsPolicy {
	return corsPolicy{
		origin:  "*",
		methods: strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", "),
		headers: strings.Join([]string{"Content-Type", "Authorization", "Accept", "Last-Event-ID"}, ", "),
		maxAge:  strconv.Itoa(24 * 60 * 60),
	}
}

func (p corsPolicy) set(h func(name, value string)) {
	h("Access-Control-Allow-Origin", p.origin)
	h("Access-Control-Allow-Methods", p.methods)
	h("Access-Control-Allow-Headers", p.headers)
	h("Access-Control-Max-Age", p.maxAge)
}

// middleware decorates huma responses. Preflights never reach it because
// the mux answers OPTIONS before routing, see preflight.
func (p corsPolicy) middleware(ctx huma.Context, next func(huma.Context)) {
	p.set(ctx.SetHeader)
	next(ctx)
}

// preflight answers every OPTIONS request on the mux with 204.
func (p corsPolicy) preflight(w http.ResponseWriter, _ *http.Request) {
	p.set(w.Header().Set)
	w.WriteHeader(http.StatusNoContent)
}
