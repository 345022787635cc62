package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/signvoice/internal/announce"
	"github.com/ayusman/signvoice/internal/session"
	"github.com/ayusman/signvoice/internal/store"
)

type fakeSession struct {
	mu       sync.Mutex
	state    session.State
	id       string
	startErr error
	starts   int
	stops    int
}

func (f *fakeSession) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	f.state = session.StateRunning
	f.id = "abc"
	return nil
}

func (f *fakeSession) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.state = session.StateStopped
}

func (f *fakeSession) State() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == "" {
		return session.StateStopped
	}
	return f.state
}

func (f *fakeSession) SessionID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != session.StateRunning {
		return ""
	}
	return f.id
}

func (f *fakeSession) Frames() int64 { return 7 }

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func serve(h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSessionHandler_Status(t *testing.T) {
	h := NewSessionHandler(&fakeSession{})

	rec := serve(h, http.MethodGet, "/api/session", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	got := decode[sessionResponse](t, rec)
	assert.Equal(t, "stopped", got.State)
	assert.Empty(t, got.SessionID)
	assert.EqualValues(t, 7, got.Frames)
}

func TestSessionHandler_StartStop(t *testing.T) {
	fake := &fakeSession{}
	h := NewSessionHandler(fake)

	rec := serve(h, http.MethodPost, "/api/session/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[sessionResponse](t, rec)
	assert.Equal(t, "running", got.State)
	assert.Equal(t, "abc", got.SessionID)

	rec = serve(h, http.MethodPost, "/api/session/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[sessionResponse](t, rec)
	assert.Equal(t, "stopped", got.State)
	assert.Equal(t, 1, fake.starts)
	assert.Equal(t, 1, fake.stops)
}

func TestSessionHandler_StartFailure(t *testing.T) {
	h := NewSessionHandler(&fakeSession{startErr: errors.New("camera busy")})

	rec := serve(h, http.MethodPost, "/api/session/start", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	got := decode[errorResponse](t, rec)
	assert.Contains(t, got.Error, "camera busy")
}

func TestSessionHandler_MethodsAndPaths(t *testing.T) {
	h := NewSessionHandler(&fakeSession{})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/api/session", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/session/start", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/session/stop", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/session/pause", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(h, tt.method, tt.path, nil).Code)
		})
	}
}

func TestModeHandler(t *testing.T) {
	a := announce.New(announce.Config{})
	var changed []announce.Mode
	h := NewModeHandler(a, func(m announce.Mode) { changed = append(changed, m) })

	rec := serve(h, http.MethodGet, "/api/mode", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "voice", decode[modeBody](t, rec).Mode)

	rec = serve(h, http.MethodPut, "/api/mode", []byte(`{"mode":"TEXT"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text", decode[modeBody](t, rec).Mode)
	assert.Equal(t, announce.ModeText, a.Mode())
	assert.Equal(t, []announce.Mode{announce.ModeText}, changed)
}

func TestModeHandler_Rejects(t *testing.T) {
	a := announce.New(announce.Config{})
	h := NewModeHandler(a, nil)

	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodPut, "/api/mode", []byte(`{"mode":"sign"}`)).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodPut, "/api/mode", []byte(`not json`)).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodDelete, "/api/mode", nil).Code)
	assert.Equal(t, announce.ModeVoice, a.Mode())
}

func TestAnnouncementsHandler(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, g := range []string{"HELLO", "GOODBYE", "OK"} {
		require.NoError(t, s.Announcements().Create(&store.Announcement{
			Gloss: g, Text: g, Mode: "text", CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	h := NewAnnouncementsHandler(s.Announcements())

	rec := serve(h, http.MethodGet, "/api/announcements?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[announcementsResponse](t, rec)
	require.Len(t, got.Announcements, 2)
	assert.Equal(t, "OK", got.Announcements[0].Gloss)
	assert.Equal(t, "GOODBYE", got.Announcements[1].Gloss)

	rec = serve(h, http.MethodGet, "/api/announcements", nil)
	assert.Len(t, decode[announcementsResponse](t, rec).Announcements, 3)

	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/api/announcements?limit=-1", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodPost, "/api/announcements", nil).Code)
}

type failingHistory struct{}

func (failingHistory) Recent(int) ([]*store.Announcement, error) { return nil, errors.New("db closed") }

func TestAnnouncementsHandler_StoreError(t *testing.T) {
	h := NewAnnouncementsHandler(failingHistory{})

	rec := serve(h, http.MethodGet, "/api/announcements", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type emptyHistory struct{}

func (emptyHistory) Recent(int) ([]*store.Announcement, error) { return nil, nil }

func TestAnnouncementsHandler_EmptyIsArray(t *testing.T) {
	rec := serve(NewAnnouncementsHandler(emptyHistory{}), http.MethodGet, "/api/announcements", nil)

	assert.JSONEq(t, `{"announcements":[]}`, rec.Body.String())
}
