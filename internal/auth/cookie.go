package auth

import (
	"net/http"
	"time"
)

const SessionCookieName = "reviewMe_token"

// CookieConfig controls the attributes of the session cookie. Secure is
// turned off only for local development over plain HTTP.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

func (cc CookieConfig) maxAge() time.Duration {
	if cc.MaxAge <= 0 {
		return DefaultTokenTTL
	}
	return cc.MaxAge
}

func (cc CookieConfig) Set(w http.ResponseWriter, token string) {
	age := cc.maxAge()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(age / time.Second),
		Expires:  time.Now().Add(age),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (cc CookieConfig) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
