// Package cookie writes and clears the session cookie shared by the API and
// the proxied frontend.
package cookie

import (
	"net"
	"net/http"
	"strings"
	"time"
)

type Jar struct {
	Name   string
	MaxAge time.Duration
}

func New(name string, maxAge time.Duration) *Jar {
	return &Jar{Name: name, MaxAge: maxAge}
}

// Read returns the session token, or "" when the cookie is absent.
func (j *Jar) Read(r *http.Request) string {
	c, err := r.Cookie(j.Name)
	if err != nil {
		return ""
	}
	return c.Value
}

func (j *Jar) Set(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, j.cookie(r, token, int(j.MaxAge.Seconds())))
}

func (j *Jar) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, j.cookie(r, "", -1))
}

func (j *Jar) cookie(r *http.Request, value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     j.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	}
	// Shared between the frontend and API ports in development.
	if hostname(r.Host) == "localhost" {
		c.Domain = "localhost"
	}
	return c
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
