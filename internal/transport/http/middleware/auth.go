package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"
)

type ctxKey string

const (
	ctxKeySubject ctxKey = "subject"
	ctxKeyAdmin   ctxKey = "admin"
)

type AccessClaims struct {
	jwt.StandardClaims
	Admin bool `json:"admin,omitempty"`
}

// Verifier checks HS256 bearer tokens on the admin API.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewVerifier(secret, issuer, audience string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, audience: audience}
}

func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || len(auth) <= 7 {
			http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
			return
		}
		tokenStr := strings.TrimSpace(auth[7:])

		claims := &AccessClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrSignatureInvalid
			}
			return v.secret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			return
		}
		if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
			http.Error(w, `{"error":"invalid issuer"}`, http.StatusUnauthorized)
			return
		}
		if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
			http.Error(w, `{"error":"invalid audience"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeySubject, claims.Subject)
		ctx = context.WithValue(ctx, ctxKeyAdmin, claims.Admin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly rejects tokens without the admin claim. Must run after Middleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			http.Error(w, `{"error":"admin required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func SubjectFromCtx(ctx context.Context) string {
	if v := ctx.Value(ctxKeySubject); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func IsAdmin(ctx context.Context) bool {
	if v := ctx.Value(ctxKeyAdmin); v != nil {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}
