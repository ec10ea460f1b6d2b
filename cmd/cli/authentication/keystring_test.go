package authentication

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestSessionRoundTripThroughKeyring(t *testing.T) {
	keyring.MockInit()

	_, err := GetSession()
	assert.ErrorIs(t, err, keyring.ErrNotFound)

	require.NoError(t, StoreSession(&StoredSession{Username: "jun", SessionID: "sid", CSRFToken: "tok"}))
	s, err := GetSession()
	require.NoError(t, err)
	assert.Equal(t, "jun", s.Username)
	assert.Equal(t, "sid", s.SessionID)

	require.NoError(t, DeleteSession())
	_, err = GetSession()
	assert.Error(t, err)
}

func TestCookiesConversion(t *testing.T) {
	s := FromCookies("jun", []*http.Cookie{
		{Name: "sessionid", Value: "sid"},
		{Name: "csrftoken", Value: "tok"},
		{Name: "other", Value: "x"},
	}, "sessionid", "csrftoken")
	assert.Equal(t, &StoredSession{Username: "jun", SessionID: "sid", CSRFToken: "tok"}, s)

	cookies := s.Cookies("sessionid", "csrftoken")
	require.Len(t, cookies, 2)
	assert.Equal(t, "sessionid", cookies[0].Name)
	assert.Equal(t, "tok", cookies[1].Value)

	assert.Empty(t, (&StoredSession{}).Cookies("sessionid", "csrftoken"))
}
