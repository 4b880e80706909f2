package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acquire(t *testing.T, m *SessionManager, cookies ...*http.Cookie) (string, []*http.Cookie) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	sess, release, err := m.Acquire(rec, req)
	require.NoError(t, err)
	id := sess.ID
	release()
	return id, rec.Result().Cookies()
}

func TestSessionManagerRoundTrip(t *testing.T) {
	m, err := NewSessionManager(SessionOptions{Secret: "k"})
	require.NoError(t, err)

	id, cookies := acquire(t, m)
	require.Len(t, cookies, 1)
	assert.Equal(t, defaultCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	again, set := acquire(t, m, cookies[0])
	assert.Equal(t, id, again)
	assert.Empty(t, set, "known session should not reissue its cookie")
	assert.Equal(t, 1, m.Len())
}

func TestSessionManagerRejectsForgedCookie(t *testing.T) {
	m, err := NewSessionManager(SessionOptions{Secret: "k"})
	require.NoError(t, err)
	other, err := NewSessionManager(SessionOptions{Secret: "other"})
	require.NoError(t, err)

	_, forged := acquire(t, other)
	id, cookies := acquire(t, m, forged[0])
	assert.NotEmpty(t, id)
	require.Len(t, cookies, 1)

	_, fresh := acquire(t, m, &http.Cookie{Name: defaultCookieName, Value: "garbage"})
	require.Len(t, fresh, 1)
	assert.Equal(t, 2, m.Len())
}

func TestSessionManagerExpiresIdleSessions(t *testing.T) {
	m, err := NewSessionManager(SessionOptions{Secret: "k", TTL: time.Hour})
	require.NoError(t, err)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.clock = func() time.Time { return now }

	first, cookies := acquire(t, m)
	now = now.Add(2 * time.Hour)

	second, reissued := acquire(t, m, cookies[0])
	assert.NotEqual(t, first, second)
	assert.Len(t, reissued, 1)
	assert.Equal(t, 1, m.Len())
}

func TestSessionStateSurvivesRequests(t *testing.T) {
	m, err := NewSessionManager(SessionOptions{Secret: "k"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	sess, release, err := m.Acquire(rec, req)
	require.NoError(t, err)
	sess.LoggedIn = true
	sess.Username = "ada"
	release()

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	sess, release, err = m.Acquire(httptest.NewRecorder(), req)
	require.NoError(t, err)
	defer release()
	assert.True(t, sess.LoggedIn)
	assert.Equal(t, "ada", sess.Username)
}
