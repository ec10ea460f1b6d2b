package devserver

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"manhwahub/internal/discussion/client"
	"manhwahub/internal/discussion/models"
	"manhwahub/internal/discussion/view"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handler struct {
	store *Store
	log   zerolog.Logger
}

func NewHandler(store *Store, log zerolog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

type createCommentBody struct {
	Text   string            `json:"text"`
	Parent *models.CommentID `json:"parent"`
}

type reactionBody struct {
	Reaction  string           `json:"reaction"`
	CommentID models.CommentID `json:"comment_id"`
}

// RegisterRoutes registers the detail page and its JSON endpoints
func (h *Handler) RegisterRoutes(router *gin.Engine, sessions *Sessions) {
	router.Use(sessions.Middleware(), sessions.Authenticate())

	router.GET("/detail/:id/", h.Detail)
	router.POST("/accounts/login/", sessions.LoginHandler)
	router.POST("/accounts/logout/", sessions.LogoutHandler)

	api := router.Group("/api", sessions.RequireUser(), sessions.RequireCSRF())
	{
		api.POST("/manhwas/:id/set_view/", h.SetView)
		api.POST("/manhwas/:id/comments/", h.CreateComment)
		api.POST("/comment-reaction/", h.React)
	}
}

// Detail renders the thread fragment for Tab-Load: comments, a bare page otherwise
// GET /detail/:id/
func (h *Handler) Detail(c *gin.Context) {
	manhwaID, ok := manhwaParam(c)
	if !ok {
		return
	}

	thread := h.store.Thread(manhwaID, currentUser(c))
	rendered := make([]template.HTML, 0, len(thread))
	for _, tc := range thread {
		html, err := view.RenderComment(&tc.Comment, tc.Reactions)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
			return
		}
		rendered = append(rendered, html)
	}

	if c.GetHeader(client.TabLoadHeader) == "comments" {
		var sb strings.Builder
		for _, html := range rendered {
			sb.WriteString(string(html))
		}
		c.JSON(http.StatusOK, client.ThreadResponse{HTML: sb.String()})
		return
	}
	c.HTML(http.StatusOK, detailTemplate, gin.H{
		"ManhwaID": manhwaID,
		"User":     currentUser(c),
		"Comments": rendered,
	})
}

// SetView counts the viewer once
// POST /api/manhwas/:id/set_view/
func (h *Handler) SetView(c *gin.Context) {
	manhwaID, ok := manhwaParam(c)
	if !ok {
		return
	}

	if h.store.RecordView(currentUser(c), manhwaID) {
		c.JSON(http.StatusOK, client.SetViewResponse{Status: true, Message: "user view added to manhwa."})
		return
	}
	c.JSON(http.StatusOK, client.SetViewResponse{Status: false, Message: "user viewed in past"})
}

// CreateComment stores a comment or a reply
// POST /api/manhwas/:id/comments/
func (h *Handler) CreateComment(c *gin.Context) {
	manhwaID, ok := manhwaParam(c)
	if !ok {
		return
	}

	var req createCommentBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{client.GeneralField: []string{err.Error()}})
		return
	}

	comment, fields := h.store.CreateComment(manhwaID, currentUser(c), req.Text, req.Parent)
	if fields != nil {
		c.JSON(http.StatusBadRequest, fields)
		return
	}

	message := "comment successfully added."
	if comment.IsReply() {
		message = "your comment successfully replied."
	}
	h.log.Info().Int64("comment_id", int64(comment.ID)).Int64("manhwa_id", manhwaID).Msg("comment created")
	c.JSON(http.StatusCreated, client.CreateCommentResponse{Comment: comment, Message: message})
}

// React toggles the current user's reaction on a comment
// POST /api/comment-reaction/
func (h *Handler) React(c *gin.Context) {
	var req reactionBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{client.GeneralField: []string{err.Error()}})
		return
	}

	// only wire codes are accepted here
	if req.Reaction != models.Like.WireCode() && req.Reaction != models.Dislike.WireCode() {
		c.JSON(http.StatusBadRequest, gin.H{"reaction": []string{"\"" + req.Reaction + "\" is not a valid choice."}})
		return
	}
	reaction, _ := models.ParseReaction(req.Reaction)

	action, counts, err := h.store.Toggle(currentUser(c), req.CommentID, reaction)
	if err != nil {
		if errors.Is(err, ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"comment_id": []string{"comment not found"}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	held := string(reaction)
	message := "your reaction added"
	switch action {
	case ToggleDeleted:
		held = ""
		message = "reaction removed"
	case ToggleUpdated:
		message = "your reaction changed"
	}

	c.JSON(http.StatusOK, gin.H{
		"comment": client.ReactionTotals{
			LikesCount:    counts.Likes,
			DisLikesCount: counts.Dislikes,
		},
		"reaction": held,
		"action":   action,
		"message":  message,
	})
}

func manhwaParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "manhwa not found"})
		return 0, false
	}
	return id, true
}
