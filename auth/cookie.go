package auth

import (
	"net/http"
	"time"
)

const RefreshCookieName = "refreshToken"

// CookieOptions mirror config.Environment; Domain is left off in development
// so the cookie binds to whatever host served it.
type CookieOptions struct {
	Domain        string
	Secure        bool
	IsDevelopment bool
}

func (o CookieOptions) domain() string {
	if o.IsDevelopment {
		return ""
	}
	return o.Domain
}

func SetRefreshCookie(w http.ResponseWriter, opts CookieOptions, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/auth",
		Domain:   opts.domain(),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

func ClearRefreshCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/auth",
		Domain:   opts.domain(),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// RefreshTokenFromRequest returns "" when the cookie is absent.
func RefreshTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
