package auth

import (
	"net/http"
	"strings"
	"time"
)

// CookieConfig captures the environment dependent cookie attributes.
type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
	// Domain scopes cookies to a parent domain; empty means host-only.
	Domain string
}

// ParseSameSite maps a configuration string onto http.SameSite.
func ParseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// CookieTransport attaches and clears token cookies. Clear always mirrors the
// attributes used by Attach because browsers match on name, domain and path.
type CookieTransport struct {
	cfg CookieConfig
	now func() time.Time
}

// NewCookieTransport constructs a CookieTransport.
func NewCookieTransport(cfg CookieConfig) *CookieTransport {
	if cfg.SameSite == http.SameSiteNoneMode {
		cfg.Secure = true
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	return &CookieTransport{cfg: cfg, now: time.Now}
}

func (c *CookieTransport) base(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.cfg.Domain,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.SameSite,
	}
}

// Attach writes a cookie holding token that lives for ttl.
func (c *CookieTransport) Attach(w http.ResponseWriter, name, token string, ttl time.Duration) {
	cookie := c.base(name, token)
	cookie.MaxAge = int(ttl / time.Second)
	cookie.Expires = c.now().Add(ttl).UTC()
	http.SetCookie(w, cookie)
}

// Clear instructs the browser to drop the named cookie.
func (c *CookieTransport) Clear(w http.ResponseWriter, name string) {
	cookie := c.base(name, "")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0).UTC()
	http.SetCookie(w, cookie)
}

// Read returns the cookie value or an empty string.
func (c *CookieTransport) Read(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// AttachPair writes both token cookies.
func (c *CookieTransport) AttachPair(w http.ResponseWriter, pair TokenPair, accessTTL, refreshTTL time.Duration) {
	c.Attach(w, AccessCookieName, pair.AccessToken, accessTTL)
	c.Attach(w, RefreshCookieName, pair.RefreshToken, refreshTTL)
}

// ClearPair drops both token cookies.
func (c *CookieTransport) ClearPair(w http.ResponseWriter) {
	c.Clear(w, AccessCookieName)
	c.Clear(w, RefreshCookieName)
}
