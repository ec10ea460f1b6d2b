// Package devserver is a small in-memory stand-in for the content site. It serves
// the same endpoints the discussion client talks to, for local runs and tests.
package devserver

import (
	"time"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const detailTemplate = "manhwa/detail.html"

const detailPage = `<!DOCTYPE html>
<html>
<head><title>manhwa {{.ManhwaID}}</title></head>
<body>
<nav class="tabs"><button data-tab="episodes">episodes</button><button data-tab="comments">comments</button></nav>
{{if .User}}<p class="viewer">{{.User}}</p>{{end}}
<div id="comments-list">{{range .Comments}}{{.}}{{end}}</div>
</body>
</html>`

// Server bundles the router with its state so callers can seed accounts and comments
type Server struct {
	Store    *Store
	Sessions *Sessions
	Router   *gin.Engine
}

func New(sessionSecret []byte, log zerolog.Logger) *Server {
	store := NewStore()
	sessions := NewSessions(sessionSecret)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))
	router.HTMLRender = loadTemplates()

	NewHandler(store, log.With().Str("component", "devserver").Logger()).RegisterRoutes(router, sessions)

	return &Server{Store: store, Sessions: sessions, Router: router}
}

func loadTemplates() multitemplate.Renderer {
	r := multitemplate.NewRenderer()
	r.AddFromString(detailTemplate, detailPage)
	return r
}

// requestLogger logs each request through zerolog instead of gin's default writer
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("user", currentUser(c)).
			Str("request_id", c.GetHeader("X-Request-ID")).
			Dur("elapsed", time.Since(started)).
			Msg("request")
	}
}
