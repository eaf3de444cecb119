package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireAPIKey rejects requests that do not present one of keys as a Bearer
// token. Browsers cannot set headers on a websocket handshake, so upgrade
// requests may pass the key as ?access_token= instead. Blank keys are ignored;
// with no keys left the middleware is a pass-through.
func RequireAPIKey(keys []string) func(http.Handler) http.Handler {
	allowed := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			allowed = append(allowed, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented, problem := presentedKey(r)
			if problem != "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, problem)
				return
			}
			if !matchesAny(allowed, []byte(presented)) {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func presentedKey(r *http.Request) (key, problem string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if isUpgrade(r) {
			if k := r.URL.Query().Get("access_token"); k != "" {
				return k, ""
			}
		}
		return "", "missing authorization header"
	}

	scheme, key, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || key == "" {
		return "", "authorization header must use Bearer scheme"
	}
	return key, ""
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// matchesAny compares against every key so timing does not reveal which one matched.
func matchesAny(allowed [][]byte, presented []byte) bool {
	hit := 0
	for _, k := range allowed {
		hit |= subtle.ConstantTimeCompare(k, presented)
	}
	return hit == 1
}
