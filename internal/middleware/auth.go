package middleware

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/sanrakshak/herbtrace/api/transport"
	"github.com/sanrakshak/herbtrace/domain"
)

// Headers the gate forwards to handlers after a token is verified.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// RoleGate checks a bearer token's role against the capability a route needs.
type RoleGate struct {
	secret []byte
	issuer string
	logger *zap.Logger
}

// NewRoleGate verifies HS256 tokens signed with secret. An empty secret
// turns the gate into a pass-through for local development.
func NewRoleGate(secret, issuer string, logger *zap.Logger) *RoleGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleGate{secret: []byte(secret), issuer: issuer, logger: logger}
}

func (g *RoleGate) Enabled() bool { return len(g.secret) > 0 }

// Require wraps next so that only roles holding capability reach it.
func (g *RoleGate) Require(capability domain.Capability) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		if !g.Enabled() {
			return next
		}
		return func(ctx *fasthttp.RequestCtx) {
			ctx.Request.Header.Del(HeaderActorID)
			ctx.Request.Header.Del(HeaderActorRole)

			subject, role, err := g.authenticate(extractToken(ctx))
			if err != nil {
				g.logger.Warn("rejected bearer token", zap.ByteString("path", ctx.Path()), zap.Error(err))
				deny(ctx, fasthttp.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing or invalid token")
				return
			}
			if !role.Can(capability) {
				deny(ctx, fasthttp.StatusForbidden, domain.ErrCodeForbidden,
					fmt.Sprintf("role %s may not %s", role, capability))
				return
			}

			ctx.Request.Header.Set(HeaderActorID, subject)
			ctx.Request.Header.Set(HeaderActorRole, string(role))
			next(ctx)
		}
	}
}

func (g *RoleGate) authenticate(tokenString string) (string, domain.Role, error) {
	if tokenString == "" {
		return "", "", domain.ErrUnauthorized
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", fmt.Errorf("parse token: %w", err)
	}
	if g.issuer != "" && !claims.VerifyIssuer(g.issuer, true) {
		return "", "", fmt.Errorf("unexpected issuer")
	}

	subject, _ := claims["sub"].(string)
	rawRole, _ := claims["role"].(string)
	role, ok := domain.ParseRole(rawRole)
	if subject == "" || !ok {
		return "", "", fmt.Errorf("token lacks subject or known role")
	}
	return subject, role, nil
}

func deny(ctx *fasthttp.RequestCtx, status int, code domain.ErrorCode, message string) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(transport.NewError(string(code), message, nil).Marshal())
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
