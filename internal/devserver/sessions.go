package devserver

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	SessionCookieName = "sessionid"
	CSRFCookieName    = "csrftoken"
	CSRFHeaderName    = "X-CSRFToken"

	userKey = "username"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// HashPassword creates a bcrypt hash from the given plaintext password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Sessions keeps registered accounts. Logged in users live in a signed session cookie.
type Sessions struct {
	mu       sync.RWMutex
	accounts map[string]string // username -> bcrypt hash
	store    cookie.Store
}

func NewSessions(secret []byte) *Sessions {
	store := cookie.NewStore(secret)
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 14 * 24 * 3600})
	return &Sessions{
		accounts: make(map[string]string),
		store:    store,
	}
}

// Register stores an account with a hashed password
func (s *Sessions) Register(username, password string) error {
	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.accounts[username] = hashed
	s.mu.Unlock()
	return nil
}

// Verify checks a password against the stored hash
func (s *Sessions) Verify(username, password string) error {
	s.mu.RLock()
	hashed, ok := s.accounts[username]
	s.mu.RUnlock()
	if !ok {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Middleware loads the session cookie into the request
func (s *Sessions) Middleware() gin.HandlerFunc {
	return sessions.Sessions(SessionCookieName, s.store)
}

// Authenticate resolves the session into a username and makes sure the
// client holds a csrf cookie. Anonymous requests pass through.
func (s *Sessions) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if user, ok := session.Get(userKey).(string); ok && user != "" {
			c.Set(userKey, user)
		}

		if _, err := c.Cookie(CSRFCookieName); err != nil {
			c.SetCookie(CSRFCookieName, uuid.NewString(), 0, "/", "", false, false)
		}

		c.Next()
	}
}

// RequireUser rejects anonymous requests
func (s *Sessions) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireCSRF checks that the csrf header echoes the csrf cookie
func (s *Sessions) RequireCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(CSRFCookieName)
		header := c.GetHeader(CSRFHeaderName)
		if err != nil || cookie == "" || header == "" ||
			subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"detail": "CSRF Failed: CSRF token missing or incorrect."})
			c.Abort()
			return
		}
		c.Next()
	}
}

type loginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler exchanges credentials for a session cookie
// POST /accounts/login/
func (s *Sessions) LoginHandler(c *gin.Context) {
	var req loginBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{err.Error()}})
		return
	}

	if err := s.Verify(req.Username, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"non_field_errors": []string{err.Error()}})
		return
	}

	session := sessions.Default(c)
	session.Set(userKey, req.Username)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": req.Username})
}

// LogoutHandler drops the session
// POST /accounts/logout/
func (s *Sessions) LogoutHandler(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "logged out"})
}

func currentUser(c *gin.Context) string {
	return c.GetString(userKey)
}
