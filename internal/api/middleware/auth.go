package middleware

import (
	"net/http"
	"strings"

	"expense_tracker/internal/common"
	"expense_tracker/internal/common/security"
)

// AuthCookie holds the session token.
const AuthCookie = "authToken"

// publicPaths skip the token check entirely.
var publicPaths = map[string]bool{
	"/api/auth/me":     true,
	"/api/auth/login":  true,
	"/api/auth/logout": true,
	"/api/register":    true,
}

func TokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(AuthCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Gate decides whether a request may reach its route at all. It never adds
// identity to the request; endpoints resolve the caller themselves with
// Identify.
func Gate(tokens *security.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			if path == "/login" {
				if claims, ok := tokens.Verify(TokenFromCookie(r)); ok {
					http.Redirect(w, r, claims.Role.DashboardPath(), http.StatusFound)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if publicPaths[path] {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := tokens.Verify(TokenFromCookie(r)); !ok {
				switch {
				case underPrefix(path, "/api"):
					common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
					return
				case underPrefix(path, "/dashboard"):
					http.Redirect(w, r, "/login", http.StatusFound)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Identify resolves the caller from the auth cookie. A missing or invalid
// token yields common.ErrUnauthorized.
func Identify(tokens *security.TokenService, r *http.Request) (security.Claims, error) {
	claims, ok := tokens.Verify(TokenFromCookie(r))
	if !ok {
		return security.Claims{}, common.NewError(common.ErrUnauthorized, "Unauthorized")
	}
	return claims, nil
}
