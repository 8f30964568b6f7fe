package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/sanrakshak/herbtrace/api/transport"
	"github.com/sanrakshak/herbtrace/domain"
	"github.com/sanrakshak/herbtrace/internal/middleware"
	"github.com/sanrakshak/herbtrace/pkg/httpcontext"
	"github.com/sanrakshak/herbtrace/pkg/logger"
	"github.com/sanrakshak/herbtrace/usecase"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

// requestContext derives the use case context. The actor forwarded by the
// role gate is attached for the audit trail.
func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	var (
		stdCtx context.Context
		cancel context.CancelFunc
	)
	if h.adapter != nil {
		stdCtx, cancel = h.adapter.Attach(ctx)
	} else {
		stdCtx, cancel = context.WithCancel(context.Background())
	}
	if actor := string(ctx.Request.Header.Peek(middleware.HeaderActorID)); actor != "" {
		stdCtx = usecase.ContextWithActor(stdCtx, actor)
	}
	return stdCtx, cancel
}

// decode unmarshals the request body into dst, answering 400 on failure.
func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid json payload", nil))
		return false
	}
	return true
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(payload.Marshal())
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	status, code := mapError(err)
	message := publicMessage(err)
	if status == http.StatusInternalServerError {
		logger.WithRequestID(stdCtx, h.logger).Error("request failed",
			zap.ByteString("path", ctx.Path()),
			zap.Error(err))
		message = "Internal Server Error"
	}
	meta := interface{}(nil)
	if reason, ok := domain.RejectionReasonOf(err); ok {
		meta = map[string]string{"reason": string(reason)}
	}
	h.respondJSON(ctx, status, transport.NewError(code, message, meta))
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodePrecondition):
		return http.StatusBadRequest, string(domain.ErrCodePrecondition)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

// publicMessage returns the caller-facing text of err without the wrapped
// cause chain.
func publicMessage(err error) string {
	var rErr *domain.RejectionError
	if errors.As(err, &rErr) {
		return rErr.Error()
	}
	var dErr *domain.Error
	if errors.As(err, &dErr) && dErr.Message != "" {
		return dErr.Message
	}
	return err.Error()
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	value, _ := ctx.UserValue(name).(string)
	return value
}
