package notify

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessMessageExpires(t *testing.T) {
	c := NewCenter(30*time.Millisecond, zerolog.Nop())
	defer c.Close()

	c.Success("comment successfully added.")
	require.Len(t, c.Messages(), 1)
	assert.Equal(t, KindSuccess, c.Messages()[0].Kind)

	assert.Eventually(t, func() bool { return len(c.Messages()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestSuccessIgnoresEmptyText(t *testing.T) {
	c := NewCenter(time.Second, zerolog.Nop())
	defer c.Close()

	c.Success("")
	assert.Empty(t, c.Messages())
}

func TestDefaultTTL(t *testing.T) {
	c := NewCenter(0, zerolog.Nop())
	assert.Equal(t, 2000*time.Millisecond, c.ttl)
}

func TestErrorsReplacePreviousErrors(t *testing.T) {
	c := NewCenter(time.Second, zerolog.Nop())

	c.Errors(map[string][]string{"text": {"This field may not be blank."}})
	assert.Equal(t, []string{"text: This field may not be blank."}, c.ErrorLines())

	c.Errors(map[string][]string{"non_field_errors": {"same text for comment not allowed."}})
	assert.Equal(t, []string{"same text for comment not allowed."}, c.ErrorLines())

	c.ClearErrors()
	assert.Empty(t, c.ErrorLines())
}

func TestFormatErrors(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string][]string
		want   []string
	}{
		{
			name:   "field errors are prefixed",
			fields: map[string][]string{"text": {"too long", "has html"}},
			want:   []string{"text: too long", "text: has html"},
		},
		{
			name: "general errors come first without prefix",
			fields: map[string][]string{
				"text":             {"required"},
				"non_field_errors": {"duplicate"},
				"parent":           {"not found"},
			},
			want: []string{"duplicate", "parent: not found", "text: required"},
		},
		{
			name:   "nil map",
			fields: nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatErrors(tt.fields))
		})
	}
}

func TestNotifyDispatch(t *testing.T) {
	c := NewCenter(time.Second, zerolog.Nop())
	defer c.Close()

	require.NoError(t, c.Notify(KindSuccess, "your reaction added"))
	require.NoError(t, c.Notify(KindError, map[string][]string{"detail": {"forbidden"}}))

	assert.Len(t, c.Messages(), 1)
	assert.Equal(t, []string{"forbidden"}, c.ErrorLines())

	assert.Error(t, c.Notify(KindSuccess, 42))
	assert.Error(t, c.Notify(KindError, "oops"))
	assert.Error(t, c.Notify(Kind("info"), "x"))
}

func TestRender(t *testing.T) {
	color.NoColor = true
	c := NewCenter(time.Second, zerolog.Nop())
	defer c.Close()

	c.Success("saved")
	c.Errors(map[string][]string{"text": {"required"}})

	var buf bytes.Buffer
	c.Render(&buf)
	assert.Equal(t, "✓ saved\n✗ text: required\n", buf.String())
}
