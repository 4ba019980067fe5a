package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/syntrixbase/exprcheck/internal/ctxkeys"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the JWT claims accepted by the API.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// Authenticator verifies HS256 bearer tokens issued by an external party.
type Authenticator struct {
	secret      []byte
	issuer      string
	audience    string
	publicPaths []string
}

// NewAuthenticator builds an Authenticator from cfg.
func NewAuthenticator(cfg AuthConfig) (*Authenticator, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth secret is required")
	}
	return &Authenticator{
		secret:      []byte(cfg.Secret),
		issuer:      cfg.Issuer,
		audience:    cfg.Audience,
		publicPaths: cfg.PublicPaths,
	}, nil
}

// ValidateToken parses and verifies tokenString.
func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// IsPublic reports whether path is served without authentication.
func (a *Authenticator) IsPublic(path string) bool {
	for _, p := range a.publicPaths {
		prefix := strings.TrimSuffix(p, "/")
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

func (s *serverImpl) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || s.auth.IsPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := bearerToken(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="exprcheck"`)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token")
			return
		}

		claims, err := s.auth.ValidateToken(token)
		if err != nil {
			s.logger.Info("Rejected token", "error", err, "request_id", GetRequestID(r.Context()))
			w.Header().Set("WWW-Authenticate", `Bearer realm="exprcheck", error="invalid_token"`)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxkeys.KeySubject, claims.Subject)
		ctx = context.WithValue(ctx, ctxkeys.KeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSubject returns the authenticated subject, if any.
func GetSubject(ctx context.Context) string {
	if sub, ok := ctx.Value(ctxkeys.KeySubject).(string); ok {
		return sub
	}
	return ""
}
