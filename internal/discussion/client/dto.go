package client

import "manhwahub/internal/discussion/models"

// CreateCommentRequest is the body of POST /api/manhwas/{id}/comments/
type CreateCommentRequest struct {
	Text   string            `json:"text"`
	Parent *models.CommentID `json:"parent"`
}

// CreateCommentResponse wraps the created comment
type CreateCommentResponse struct {
	Comment *models.Comment `json:"comment"`
	Message string          `json:"message,omitempty"`
}

// ReactionRequest is the body of POST /api/comment-reaction/
type ReactionRequest struct {
	Reaction  string           `json:"reaction"`
	CommentID models.CommentID `json:"comment_id"`
}

// ReactionResponse carries the authoritative totals after a toggle
type ReactionResponse struct {
	Comment *ReactionTotals `json:"comment"`
	Message string          `json:"message,omitempty"`
}

type ReactionTotals struct {
	LikesCount    int `json:"likes_count"`
	DisLikesCount int `json:"dis_likes_count"`
}

func (t *ReactionTotals) Counts() models.ReactionCounts {
	return models.ReactionCounts{Likes: t.LikesCount, Dislikes: t.DisLikesCount}
}

// ReactionResult is what React hands back to the controller
type ReactionResult struct {
	Counts  models.ReactionCounts
	Message string
}

// ThreadResponse is the body returned for a Tab-Load: comments request
type ThreadResponse struct {
	HTML string `json:"html"`
}

// SetViewResponse is informational only
type SetViewResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// LoginRequest exchanges credentials for a session cookie
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Username string `json:"username"`
}
