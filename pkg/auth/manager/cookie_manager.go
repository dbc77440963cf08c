package manager

import (
	"errors"
	"net/http"
	"time"
)

// AccessTokenCookie is the HttpOnly cookie that carries the access token.
const AccessTokenCookie = "jee_access_token"

// ErrNoTokenCookie is returned when the request has no access token cookie.
var ErrNoTokenCookie = errors.New("access token cookie missing")

// CookieManager writes and reads the access token cookie.
type CookieManager struct {
	expiry   time.Duration
	path     string
	domain   string
	secure   bool
	sameSite http.SameSite
}

// NewCookieManager creates a cookie manager. In production the cookie is
// Secure and SameSite=Strict.
func NewCookieManager(expiry time.Duration, domain string, production bool) *CookieManager {
	m := &CookieManager{
		expiry:   expiry,
		path:     "/",
		domain:   domain,
		secure:   production,
		sameSite: http.SameSiteLaxMode,
	}
	if production {
		m.sameSite = http.SameSiteStrictMode
	}
	return m
}

// SetAccessTokenCookie stores the access token in an HttpOnly cookie.
func (m *CookieManager) SetAccessTokenCookie(w http.ResponseWriter, accessToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Path:     m.path,
		Domain:   m.domain,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
		MaxAge:   int(m.expiry.Seconds()),
	})
}

// ClearAccessTokenCookie expires the cookie on the client.
func (m *CookieManager) ClearAccessTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     m.path,
		Domain:   m.domain,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
		MaxAge:   -1,
	})
}

// GetAccessTokenFromCookie returns the token stored in the cookie.
func GetAccessTokenFromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(AccessTokenCookie)
	if err != nil || cookie.Value == "" {
		return "", ErrNoTokenCookie
	}
	return cookie.Value, nil
}
