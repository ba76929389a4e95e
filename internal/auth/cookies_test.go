package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSameSite(t *testing.T) {
	assert.Equal(t, http.SameSiteStrictMode, ParseSameSite("Strict"))
	assert.Equal(t, http.SameSiteNoneMode, ParseSameSite("none"))
	assert.Equal(t, http.SameSiteLaxMode, ParseSameSite(""))
	assert.Equal(t, http.SameSiteLaxMode, ParseSameSite("bogus"))
}

func TestCookieAttachAndClearShareAttributes(t *testing.T) {
	transport := NewCookieTransport(CookieConfig{Secure: true, SameSite: http.SameSiteLaxMode, Domain: ".example.com"})

	rec := httptest.NewRecorder()
	transport.Attach(rec, AccessCookieName, "token-value", 15*time.Minute)
	transport.Clear(rec, AccessCookieName)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	set, cleared := cookies[0], cookies[1]

	assert.Equal(t, "token-value", set.Value)
	assert.Equal(t, 900, set.MaxAge)
	assert.True(t, set.HttpOnly)

	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
	for _, c := range []*http.Cookie{set, cleared} {
		assert.Equal(t, AccessCookieName, c.Name)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, "example.com", c.Domain)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	}
}

func TestCookieSameSiteNoneForcesSecure(t *testing.T) {
	transport := NewCookieTransport(CookieConfig{SameSite: http.SameSiteNoneMode})
	rec := httptest.NewRecorder()
	transport.Attach(rec, RefreshCookieName, "v", time.Hour)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
}

func TestCookieDevelopmentDefaults(t *testing.T) {
	transport := NewCookieTransport(CookieConfig{})
	rec := httptest.NewRecorder()
	transport.ClearPair(rec)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, AccessCookieName, cookies[0].Name)
	assert.Equal(t, RefreshCookieName, cookies[1].Name)
	for _, c := range cookies {
		assert.False(t, c.Secure)
		assert.Empty(t, c.Domain)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	}
}

func TestCookieRead(t *testing.T) {
	transport := NewCookieTransport(CookieConfig{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, transport.Read(req, AccessCookieName))
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: "abc"})
	assert.Equal(t, "abc", transport.Read(req, AccessCookieName))
}
