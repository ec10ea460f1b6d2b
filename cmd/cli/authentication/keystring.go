package authentication

// keystring.go keeps the site's session cookies in the OS keyring between CLI runs.
import (
	"encoding/json"
	"net/http"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "manhwahub-cli"
	cookieKey   = "site_cookies"

	// SessionCookieName is the cookie the site authenticates requests with
	SessionCookieName = "sessionid"
)

type StoredSession struct {
	Username  string `json:"username"`
	SessionID string `json:"sessionid"`
	CSRFToken string `json:"csrftoken"`
}

// Cookies turns the stored values back into cookies for the client jar
func (s *StoredSession) Cookies(sessionCookie, csrfCookie string) []*http.Cookie {
	var cookies []*http.Cookie
	if s.SessionID != "" {
		cookies = append(cookies, &http.Cookie{Name: sessionCookie, Value: s.SessionID, Path: "/"})
	}
	if s.CSRFToken != "" {
		cookies = append(cookies, &http.Cookie{Name: csrfCookie, Value: s.CSRFToken, Path: "/"})
	}
	return cookies
}

// FromCookies picks the session and csrf values out of a jar snapshot
func FromCookies(username string, cookies []*http.Cookie, sessionCookie, csrfCookie string) *StoredSession {
	s := &StoredSession{Username: username}
	for _, c := range cookies {
		switch c.Name {
		case sessionCookie:
			s.SessionID = c.Value
		case csrfCookie:
			s.CSRFToken = c.Value
		}
	}
	return s
}

func StoreSession(s *StoredSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return keyring.Set(serviceName, cookieKey, string(data))
}

func GetSession() (*StoredSession, error) {
	value, err := keyring.Get(serviceName, cookieKey)
	if err != nil {
		return nil, err
	}

	var s StoredSession
	if err := json.Unmarshal([]byte(value), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func DeleteSession() error {
	return keyring.Delete(serviceName, cookieKey)
}
