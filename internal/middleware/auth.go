package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// DevUserHeader carries the caller's user id when dev mode is enabled.
const DevUserHeader = "X-User-ID"

type AuthConfig struct {
	DevMode    bool
	JWKSClient *JWKSClient
	Issuer     string
	// Audience is checked against the aud claim when non-empty.
	Audience string
}

// Auth resolves the caller's user id and stores it in the request context.
// In JWT mode the user id is the sub claim of a verified RS256 token.
type Auth struct {
	cfg    AuthConfig
	logger *slog.Logger
}

func NewAuth(cfg AuthConfig, logger *slog.Logger) (*Auth, error) {
	if !cfg.DevMode {
		if cfg.JWKSClient == nil {
			return nil, fmt.Errorf("middleware: JWKSClient is required when DevMode is false")
		}
		if cfg.Issuer == "" {
			return nil, fmt.Errorf("middleware: Issuer is required when DevMode is false")
		}
	}
	return &Auth{cfg: cfg, logger: logger}, nil
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.DevMode {
			a.handleDevMode(w, r, next)
			return
		}
		a.handleJWT(w, r, next)
	})
}

func (a *Auth) handleDevMode(w http.ResponseWriter, r *http.Request, next http.Handler) {
	userID := r.Header.Get(DevUserHeader)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", DevUserHeader+" header required in dev mode")
		return
	}

	ctx := SetUserID(r.Context(), userID)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func (a *Auth) handleJWT(w http.ResponseWriter, r *http.Request, next http.Handler) {
	tokenStr, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "bearer token required")
		return
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(a.cfg.Issuer),
		jwt.WithExpirationRequired(),
	}
	if a.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.cfg.Audience))
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (any, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("kid header not found")
		}
		return a.cfg.JWKSClient.GetKey(r.Context(), kid)
	}, opts...)
	if err != nil || !token.Valid {
		a.logger.DebugContext(r.Context(), "token rejected", "error", err)
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
		return
	}

	if claims.Subject == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sub claim not found")
		return
	}

	ctx := SetUserID(r.Context(), claims.Subject)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
