package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/sanrakshak/herbtrace/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	KeyActorRole  Key = "actor_role"
)

const headerRequestID = "X-Request-ID"

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	base    context.Context
	timeout time.Duration
}

// NewAdapter constructs an Adapter. Request contexts derive from base, so
// cancelling it aborts in-flight use case calls during shutdown.
func NewAdapter(base context.Context, timeout time.Duration) *Adapter {
	if base == nil {
		base = context.Background()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{base: base, timeout: timeout}
}

// Attach creates a context with timeout derived from the adapter and enriches it with request metadata.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(a.base, a.timeout)

	reqID := getRequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set(headerRequestID, reqID)

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	if role := string(ctx.Request.Header.Peek("X-Actor-Role")); role != "" {
		stdCtx = context.WithValue(stdCtx, KeyActorRole, role)
	}

	return stdCtx, cancel
}

func getRequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if header := strings.TrimSpace(string(ctx.Request.Header.Peek(headerRequestID))); header != "" {
		return header
	}
	return uuid.NewString()
}
