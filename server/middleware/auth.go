package middleware

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/indieinfra/inkwell/config"
	"github.com/indieinfra/inkwell/server/auth"
	"github.com/indieinfra/inkwell/server/resp"
	"github.com/indieinfra/inkwell/server/util"
)

func extractTokenFromFormBody(cfg *config.Config, w http.ResponseWriter, r *http.Request) string {
	// Read at most 32K of the body to extract access token
	r.Body = http.MaxBytesReader(w, r.Body, 32<<10)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		resp.WriteInvalidRequest(w, "Request too large")
		return ""
	}

	// Replace the body so handlers can read it again
	r.Body = io.NopCloser(bytes.NewReader(body))

	values, err := url.ParseQuery(string(body))

	// A parse error is possible on a partially read payload. We still try to
	// pull a token out; the debug message nudges clients to prefer the
	// Authorization header instead.
	if err != nil {
		if cfg.Debug {
			rl := util.WithRequest(log.Default(), r, "")
			rl.Infof("form body parse error during token extraction (consider using Auth header): %v", err)
		}
	}

	return values.Get("access_token")
}

// ValidateTokenMiddleware wraps a downstream handler. It extracts a Bearer
// token from the Authorization header, falling back to the access_token form
// field for urlencoded POSTs, then verifies the token against the configured
// token endpoint before letting the request through.
func ValidateTokenMiddleware(cfg *config.Config, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractBearerToken(r.Header.Get("Authorization"))

		if token == "" && r.Method == http.MethodPost {
			contentType, ok := util.ExtractMediaType(w, r)
			if !ok {
				return
			}

			if contentType == "application/x-www-form-urlencoded" {
				token = extractTokenFromFormBody(cfg, w, r)
			}
		}

		token = strings.TrimSpace(token)
		if token == "" {
			resp.WriteUnauthorized(w, "An access token is required")
			return
		}

		details, err := auth.VerifyAccessToken(cfg, token)
		if err != nil {
			resp.WriteInternalServerError(w, "Could not reach the token endpoint")
			return
		}

		if details == nil {
			resp.WriteForbidden(w, "Token validation failed")
			return
		}

		rl := util.WithRequest(log.Default(), r, details.Me)
		ctx := util.ContextWithLogger(r.Context(), rl)
		next.ServeHTTP(w, r.WithContext(auth.AddToken(ctx, details)))
	})
}
