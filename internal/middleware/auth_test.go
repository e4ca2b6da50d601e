package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/planner/pkg/httpcontext"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func run(issuer string, prepare func(*fasthttp.RequestCtx)) (*fasthttp.RequestCtx, string, bool) {
	var seen string
	called := false
	handler := JWTAuth(secret, issuer, nil)(func(ctx *fasthttp.RequestCtx) {
		called = true
		seen = httpcontext.UserID(ctx)
	})
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/api/v1/schedule")
	prepare(ctx)
	handler(ctx)
	return ctx, seen, called
}

func TestJWTAuth(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	valid := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u1", "exp": exp, "iss": "planner"})
	userIDClaim := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": "u9", "sub": "ignored", "exp": exp})
	expired := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()})
	wrongKey := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "u1", "exp": exp})
	noSubject := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"exp": exp})

	tests := []struct {
		name     string
		issuer   string
		prepare  func(*fasthttp.RequestCtx)
		wantUser string
	}{
		{
			name:     "bearer header",
			prepare:  func(ctx *fasthttp.RequestCtx) { ctx.Request.Header.Set("Authorization", "Bearer "+valid) },
			wantUser: "u1",
		},
		{
			name:     "user_id wins over sub",
			prepare:  func(ctx *fasthttp.RequestCtx) { ctx.Request.Header.Set("Authorization", "Bearer "+userIDClaim) },
			wantUser: "u9",
		},
		{
			name:     "query token for event streams",
			prepare:  func(ctx *fasthttp.RequestCtx) { ctx.Request.SetRequestURI("/api/v1/schedule/stream?access_token=" + valid) },
			wantUser: "u1",
		},
		{
			name:     "issuer match",
			issuer:   "planner",
			prepare:  func(ctx *fasthttp.RequestCtx) { ctx.Request.Header.Set("Authorization", "Bearer "+valid) },
			wantUser: "u1",
		},
		{
			name:    "issuer mismatch",
			issuer:  "someone-else",
			prepare: func(ctx *fasthttp.RequestCtx) { ctx.Request.Header.Set("Authorization", "Bearer "+valid) },
		},
		{
			name:    "missing token",
			prepare: func(*fasthttp.RequestCtx) {},
		},
		{
			name: "spoofed identity header",
			prepare: func(ctx *fasthttp.RequestCtx) {
				ctx.Request.Header.Set(httpcontext.UserIDHeader, "admin")
			},
		},
		{
			name:    "expired",
			prepare: func(ctx *fasthttp.RequestCtx) { ctx.Request.Header.Set("Authorization", "Bearer "+expired) },
		},
		{
			name:    "wrong key",
			prepare: func(ctx *fasthttp.RequestCtx) { ctx.Request.Header.Set("Authorization", "Bearer "+wrongKey) },
		},
		{
			name:    "no subject",
			prepare: func(ctx *fasthttp.RequestCtx) { ctx.Request.Header.Set("Authorization", "Bearer "+noSubject) },
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ctx, user, called := run(tt.issuer, tt.prepare)
			if tt.wantUser == "" {
				if called || ctx.Response.StatusCode() != fasthttp.StatusUnauthorized {
					t.Fatalf("called=%v status=%d, want 401", called, ctx.Response.StatusCode())
				}
				return
			}
			if !called || user != tt.wantUser {
				t.Fatalf("called=%v user=%q, want %q", called, user, tt.wantUser)
			}
		})
	}
}
