package devserver

import (
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"manhwahub/internal/discussion/models"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	htmlTag            = regexp.MustCompile(`<[^>]+>`)
)

// ToggleAction is what the server did with a reaction request
type ToggleAction string

const (
	ToggleCreated ToggleAction = "created"
	ToggleUpdated ToggleAction = "updated"
	ToggleDeleted ToggleAction = "deleted"
)

type storedComment struct {
	comment  models.Comment
	manhwaID int64
	counts   models.ReactionCounts
}

type reactionKey struct {
	user      string
	commentID models.CommentID
}

type viewKey struct {
	user     string
	manhwaID int64
}

// Store is the in-memory state behind the dev server
type Store struct {
	mu         sync.Mutex
	nextID     models.CommentID
	comments   map[models.CommentID]*storedComment
	order      []models.CommentID // creation order
	reactions  map[reactionKey]models.Reaction
	views      map[viewKey]bool
	viewCounts map[int64]int
	now        func() time.Time
}

func NewStore() *Store {
	return &Store{
		comments:   make(map[models.CommentID]*storedComment),
		reactions:  make(map[reactionKey]models.Reaction),
		views:      make(map[viewKey]bool),
		viewCounts: make(map[int64]int),
		now:        time.Now,
	}
}

// CreateComment validates and stores a comment. Field errors come back as a map.
func (s *Store) CreateComment(manhwaID int64, author, text string, parent *models.CommentID) (*models.Comment, map[string][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := map[string][]string{}
	if strings.TrimSpace(text) == "" {
		fields["text"] = append(fields["text"], "This field may not be blank.")
	} else if htmlTag.MatchString(text) {
		fields["text"] = append(fields["text"], "text cant be included html tags.")
	}
	if parent != nil {
		p, ok := s.comments[*parent]
		if !ok || p.manhwaID != manhwaID {
			fields["parent"] = append(fields["parent"], "Invalid pk \""+parent.String()+"\" - object does not exist.")
		}
	}
	if len(fields) > 0 {
		return nil, fields
	}

	for _, c := range s.comments {
		if c.manhwaID == manhwaID && c.comment.AuthorName == author && c.comment.Text == text {
			return nil, map[string][]string{"non_field_error": {"same text for comment not allowed."}}
		}
	}

	s.nextID++
	c := &storedComment{
		comment: models.Comment{
			ID:                  s.nextID,
			AuthorName:          author,
			Text:                text,
			ParentID:            parent,
			CreatedOrModifiedAt: s.now().Format("2006-01-02 15:04"),
		},
		manhwaID: manhwaID,
	}
	s.comments[c.comment.ID] = c
	s.order = append(s.order, c.comment.ID)

	out := c.comment
	return &out, nil
}

// Toggle applies a reaction for user: same reaction deletes, a different one
// switches, none creates. Returns the authoritative counts afterwards.
func (s *Store) Toggle(user string, id models.CommentID, r models.Reaction) (ToggleAction, models.ReactionCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return "", models.ReactionCounts{}, ErrCommentNotFound
	}

	key := reactionKey{user: user, commentID: id}
	existing, has := s.reactions[key]

	var action ToggleAction
	switch {
	case has && existing == r:
		delete(s.reactions, key)
		c.counts = c.counts.Add(r, -1)
		action = ToggleDeleted
	case has:
		s.reactions[key] = r
		c.counts = c.counts.Add(r, 1).Add(existing, -1)
		action = ToggleUpdated
	default:
		s.reactions[key] = r
		c.counts = c.counts.Add(r, 1)
		action = ToggleCreated
	}
	return action, c.counts, nil
}

// RecordView counts a viewer once per manhwa
func (s *Store) RecordView(user string, manhwaID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := viewKey{user: user, manhwaID: manhwaID}
	if s.views[key] {
		return false
	}
	s.views[key] = true
	s.viewCounts[manhwaID]++
	return true
}

// Views returns the view counter of a manhwa
func (s *Store) Views(manhwaID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewCounts[manhwaID]
}

// ThreadComment is a comment as the given viewer sees it
type ThreadComment struct {
	Comment   models.Comment
	Reactions models.CommentReactions
}

// Thread lists the comments of a manhwa newest first with user's own markers
func (s *Store) Thread(manhwaID int64, user string) []ThreadComment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ThreadComment
	for i := len(s.order) - 1; i >= 0; i-- {
		c := s.comments[s.order[i]]
		if c.manhwaID != manhwaID {
			continue
		}
		r := models.CommentReactions{State: models.StateNone, Counts: c.counts}
		if held, ok := s.reactions[reactionKey{user: user, commentID: c.comment.ID}]; ok {
			r.State = held.State()
		}
		out = append(out, ThreadComment{Comment: c.comment, Reactions: r})
	}
	return out
}
