package client

import (
	"net/http"
	"net/url"
)

const (
	DefaultCSRFCookieName = "csrftoken"
	DefaultCSRFHeaderName = "X-CSRFToken"
)

// CSRFProvider looks up the anti-forgery token among the cookies stored for the api host
type CSRFProvider struct {
	jar        http.CookieJar
	base       *url.URL
	cookieName string
}

func NewCSRFProvider(jar http.CookieJar, base *url.URL, cookieName string) *CSRFProvider {
	return &CSRFProvider{jar: jar, base: base, cookieName: cookieName}
}

// Token returns the token, ok is false when no such cookie is stored
func (p *CSRFProvider) Token() (string, bool) {
	if p == nil || p.jar == nil {
		return "", false
	}
	for _, cookie := range p.jar.Cookies(p.base) {
		if cookie.Name == p.cookieName && cookie.Value != "" {
			return cookie.Value, true
		}
	}
	return "", false
}
