package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap/zaptest"

	"github.com/sanrakshak/herbtrace/domain"
)

const testSecret = "ledger-secret"

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func serve(gate *RoleGate, capability domain.Capability, authorization string) (*fasthttp.RequestCtx, string) {
	var seenActor string
	handler := gate.Require(capability)(func(ctx *fasthttp.RequestCtx) {
		seenActor = string(ctx.Request.Header.Peek(HeaderActorID))
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set(HeaderActorID, "spoofed")
	if authorization != "" {
		ctx.Request.Header.Set("Authorization", authorization)
	}
	handler(ctx)
	return ctx, seenActor
}

func TestRoleGate(t *testing.T) {
	gate := NewRoleGate(testSecret, "", zaptest.NewLogger(t))
	exp := time.Now().Add(time.Hour).Unix()

	cases := []struct {
		name       string
		auth       string
		capability domain.Capability
		wantStatus int
		wantActor  string
	}{
		{
			name:       "lab records test",
			auth:       "Bearer " + signedToken(t, testSecret, jwt.MapClaims{"sub": "lab-7", "role": "Lab", "exp": exp}),
			capability: domain.CapRecordTest,
			wantStatus: fasthttp.StatusOK,
			wantActor:  "lab-7",
		},
		{
			name:       "role match is case-insensitive",
			auth:       signedToken(t, testSecret, jwt.MapClaims{"sub": "m-1", "role": "manufacturer", "exp": exp}),
			capability: domain.CapFinalizeBatch,
			wantStatus: fasthttp.StatusOK,
			wantActor:  "m-1",
		},
		{
			name:       "farmer cannot finalize",
			auth:       "Bearer " + signedToken(t, testSecret, jwt.MapClaims{"sub": "F001", "role": "Farmer", "exp": exp}),
			capability: domain.CapFinalizeBatch,
			wantStatus: fasthttp.StatusForbidden,
		},
		{
			name:       "missing token",
			capability: domain.CapRecordCollection,
			wantStatus: fasthttp.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			auth:       "Bearer " + signedToken(t, "other", jwt.MapClaims{"sub": "x", "role": "Regulator", "exp": exp}),
			capability: domain.CapRejectBatch,
			wantStatus: fasthttp.StatusUnauthorized,
		},
		{
			name:       "unknown role",
			auth:       "Bearer " + signedToken(t, testSecret, jwt.MapClaims{"sub": "x", "role": "Auditor", "exp": exp}),
			capability: domain.CapAuditBatches,
			wantStatus: fasthttp.StatusUnauthorized,
		},
		{
			name:       "expired token",
			auth:       "Bearer " + signedToken(t, testSecret, jwt.MapClaims{"sub": "x", "role": "Regulator", "exp": time.Now().Add(-time.Minute).Unix()}),
			capability: domain.CapRejectBatch,
			wantStatus: fasthttp.StatusUnauthorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, actor := serve(gate, tc.capability, tc.auth)
			if got := ctx.Response.StatusCode(); got != tc.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tc.wantStatus, got, ctx.Response.Body())
			}
			if actor != tc.wantActor {
				t.Fatalf("expected actor %q, got %q", tc.wantActor, actor)
			}
		})
	}
}

func TestRoleGateDisabledPassesThrough(t *testing.T) {
	gate := NewRoleGate("", "", nil)
	if gate.Enabled() {
		t.Fatal("gate without secret must be disabled")
	}
	ctx, actor := serve(gate, domain.CapRejectBatch, "")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected pass-through, got %d", ctx.Response.StatusCode())
	}
	if actor != "spoofed" {
		t.Fatalf("disabled gate must not touch actor headers, got %q", actor)
	}
}
