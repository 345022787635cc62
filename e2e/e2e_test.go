package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/signvoice/internal/app"
	"github.com/ayusman/signvoice/internal/capture"
	"github.com/ayusman/signvoice/internal/config"
	"github.com/ayusman/signvoice/internal/detector"
	"github.com/ayusman/signvoice/internal/server"
	"github.com/ayusman/signvoice/testdata"
)

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	frames := testdata.BlankFrames(2)
	defer testdata.CloseFrames(frames)

	camera := capture.NewMockCamera(frames, true)
	camera.SetDelay(10 * time.Millisecond)
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.HelloLandmarks()})

	cfg := config.Defaults()
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	cfg.Announce.Mode = "text"
	cfg.Speech.Command = "true"

	a, err := app.New(cfg, app.Options{Camera: camera, Detector: det})
	require.NoError(t, err)
	defer a.Close()

	ts := httptest.NewServer(a.Handler())
	defer ts.Close()
	client := ts.Client()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	require.NoError(t, err)
	defer conn.Close()

	next := func() server.Event {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var ev server.Event
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}
	waitFor := func(match func(server.Event) bool) server.Event {
		t.Helper()
		for {
			if ev := next(); match(ev) {
				return ev
			}
		}
	}

	t.Run("Health", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "stopped", body["session"])
		assert.Equal(t, "text", body["mode"])
	})

	t.Run("StartAnnouncesSign", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/session/start", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		waitFor(func(ev server.Event) bool { return ev.Type == server.EventState && ev.State == "running" })
		ev := waitFor(func(ev server.Event) bool { return ev.Type == server.EventLabel })
		assert.Equal(t, "Hello", ev.Text)
	})

	t.Run("HistoryListsAnnouncement", func(t *testing.T) {
		type announcement struct {
			Gloss     string `json:"gloss"`
			Mode      string `json:"mode"`
			SessionID string `json:"sessionId"`
		}
		var got []announcement

		require.Eventually(t, func() bool {
			resp, err := client.Get(ts.URL + "/api/announcements?limit=5")
			if err != nil {
				return false
			}
			defer resp.Body.Close()

			var body struct {
				Announcements []announcement `json:"announcements"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return false
			}
			got = body.Announcements
			return len(got) > 0
		}, 2*time.Second, 20*time.Millisecond)

		assert.Equal(t, "HELLO", got[0].Gloss)
		assert.Equal(t, "text", got[0].Mode)
		assert.Equal(t, a.Session().SessionID(), got[0].SessionID)
	})

	t.Run("SwitchMode", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/mode", strings.NewReader(`{"mode":"voice"}`))
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		ev := waitFor(func(ev server.Event) bool { return ev.Type == server.EventMode })
		assert.Equal(t, "voice", ev.Mode)
	})

	t.Run("StopEndsSession", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/session/stop", "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()

		waitFor(func(ev server.Event) bool { return ev.Type == server.EventState && ev.State == "stopped" })
		assert.False(t, camera.IsOpen())

		s, err := a.Store().Sessions().GetByID(a.Session().SessionID())
		require.NoError(t, err)
		assert.Equal(t, "requested", s.Reason)
		assert.NotNil(t, s.StoppedAt)
	})
}
