package notify

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"manhwahub/internal/discussion/client"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// Kind defines the type of notification
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// DefaultTTL is how long a success message stays visible
const DefaultTTL = 2000 * time.Millisecond

// Message is one transient success message
type Message struct {
	ID        uint64    `json:"id"`
	Kind      Kind      `json:"kind"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Center holds the transient success messages and the current field-level errors
type Center struct {
	mu       sync.Mutex
	ttl      time.Duration
	nextID   uint64
	messages []Message
	errors   []string
	timers   map[uint64]*time.Timer
	log      zerolog.Logger
}

func NewCenter(ttl time.Duration, log zerolog.Logger) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{
		ttl:    ttl,
		timers: make(map[uint64]*time.Timer),
		log:    log.With().Str("component", "notify").Logger(),
	}
}

// Notify dispatches on kind. Success takes a string, error takes a field -> messages map.
func (c *Center) Notify(kind Kind, payload any) error {
	switch kind {
	case KindSuccess:
		text, ok := payload.(string)
		if !ok {
			return fmt.Errorf("success payload must be a string, got %T", payload)
		}
		c.Success(text)
	case KindError:
		fields, ok := payload.(map[string][]string)
		if !ok {
			return fmt.Errorf("error payload must be map[string][]string, got %T", payload)
		}
		c.Errors(fields)
	default:
		return fmt.Errorf("unknown notification kind %q", kind)
	}
	return nil
}

// Success appends a message that removes itself after the ttl. Empty text is ignored.
func (c *Center) Success(text string) {
	if text == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.messages = append(c.messages, Message{ID: id, Kind: KindSuccess, Text: text, CreatedAt: time.Now()})
	c.timers[id] = time.AfterFunc(c.ttl, func() { c.remove(id) })

	c.log.Info().Str("message", text).Msg("success")
}

// Errors replaces the rendered errors with one line per message
func (c *Center) Errors(fields map[string][]string) {
	lines := FormatErrors(fields)

	c.mu.Lock()
	c.errors = lines
	c.mu.Unlock()

	for _, line := range lines {
		c.log.Warn().Str("error", line).Msg("error")
	}
}

// ClearErrors removes previously rendered errors
func (c *Center) ClearErrors() {
	c.mu.Lock()
	c.errors = nil
	c.mu.Unlock()
}

func (c *Center) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.timers, id)
	for i, m := range c.messages {
		if m.ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}

// Messages returns the success messages still visible
func (c *Center) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// ErrorLines returns the currently rendered error lines
func (c *Center) ErrorLines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.errors...)
}

// Render prints the visible messages and errors
func (c *Center) Render(w io.Writer) {
	messages := c.Messages()
	errors := c.ErrorLines()

	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	for _, m := range messages {
		ok.Fprintf(w, "✓ %s\n", m.Text)
	}
	for _, line := range errors {
		bad.Fprintf(w, "✗ %s\n", line)
	}
}

// Close stops pending removal timers
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}

// FormatErrors renders one line per error. General errors come first and carry no prefix,
// the remaining fields follow in name order as "field: message".
func FormatErrors(fields map[string][]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		gi, gj := client.IsGeneralField(names[i]), client.IsGeneralField(names[j])
		if gi != gj {
			return gi
		}
		return names[i] < names[j]
	})

	var lines []string
	for _, name := range names {
		for _, msg := range fields[name] {
			if client.IsGeneralField(name) {
				lines = append(lines, msg)
			} else {
				lines = append(lines, name+": "+msg)
			}
		}
	}
	return lines
}
