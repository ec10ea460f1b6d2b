package models

import "fmt"

// Reaction is what a viewer asks for when pressing one of the two reaction buttons
type Reaction string

const (
	Like    Reaction = "like"
	Dislike Reaction = "dislike"
)

// wire codes used by the reaction endpoint
const (
	likeCode    = "lk"
	dislikeCode = "dlk"
)

// ParseReaction accepts both the long names and the wire codes
func ParseReaction(s string) (Reaction, error) {
	switch s {
	case string(Like), likeCode:
		return Like, nil
	case string(Dislike), dislikeCode:
		return Dislike, nil
	}
	return "", fmt.Errorf("unknown reaction %q", s)
}

// WireCode returns the value sent in the "reaction" field of the request body
func (r Reaction) WireCode() string {
	if r == Dislike {
		return dislikeCode
	}
	return likeCode
}

// Opposite returns the other reaction
func (r Reaction) Opposite() Reaction {
	if r == Like {
		return Dislike
	}
	return Like
}

// State is the ReactionState that holding this reaction corresponds to
func (r Reaction) State() ReactionState {
	if r == Like {
		return StateLiked
	}
	return StateDisliked
}

// ReactionState is the reaction a single viewer currently holds on a comment.
// Liked and disliked are mutually exclusive by construction.
type ReactionState string

const (
	StateNone     ReactionState = "none"
	StateLiked    ReactionState = "liked"
	StateDisliked ReactionState = "disliked"
)

// Reaction returns the reaction held in this state, ok is false for StateNone
func (s ReactionState) Reaction() (Reaction, bool) {
	switch s {
	case StateLiked:
		return Like, true
	case StateDisliked:
		return Dislike, true
	}
	return "", false
}

// Active reports whether the button for r carries the active marker in this state
func (s ReactionState) Active(r Reaction) bool {
	held, ok := s.Reaction()
	return ok && held == r
}

type ReactionCounts struct {
	Likes    int `json:"likes_count"`
	Dislikes int `json:"dis_likes_count"`
}

// Of returns the count displayed on the button for r
func (c ReactionCounts) Of(r Reaction) int {
	if r == Like {
		return c.Likes
	}
	return c.Dislikes
}

// Add moves the count for r by delta, never below zero
func (c ReactionCounts) Add(r Reaction, delta int) ReactionCounts {
	if r == Like {
		c.Likes += delta
	} else {
		c.Dislikes += delta
	}
	return c.Clamp()
}

// Clamp floors both counts at zero
func (c ReactionCounts) Clamp() ReactionCounts {
	if c.Likes < 0 {
		c.Likes = 0
	}
	if c.Dislikes < 0 {
		c.Dislikes = 0
	}
	return c
}

// CommentReactions is everything the viewer sees about reactions on one comment
type CommentReactions struct {
	State  ReactionState  `json:"state"`
	Counts ReactionCounts `json:"counts"`
}

// NewCommentReactions returns the state of a freshly created comment
func NewCommentReactions() CommentReactions {
	return CommentReactions{State: StateNone}
}
