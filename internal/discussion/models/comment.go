package models

import "strconv"

// CommentID is the server-assigned identity of a comment
type CommentID int64

func (id CommentID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseCommentID parses a decimal comment id as typed on the command line or found in markup
func ParseCommentID(s string) (CommentID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return CommentID(v), nil
}

type Comment struct {
	ID                  CommentID  `json:"id"`
	AuthorName          string     `json:"author"`
	Text                string     `json:"text"`
	ParentID            *CommentID `json:"parent,omitempty"`
	CreatedOrModifiedAt string     `json:"datetime_modified,omitempty"`
}

// IsReply reports whether the comment answers another comment
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}
