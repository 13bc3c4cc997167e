package track_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscyber/cyberkpi/track"
)

const (
	mobileUA  = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 Mobile Safari/537.36"
	desktopUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Safari/537.36"
)

// collector is an httptest stand-in for POST /collect.
type collector struct {
	mu       sync.Mutex
	payloads []map[string]any
	status   int
}

func newCollector(status int) (*collector, *httptest.Server) {
	c := &collector{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			c.mu.Lock()
			c.payloads = append(c.payloads, payload)
			c.mu.Unlock()
		}
		w.WriteHeader(c.status)
	}))
	return c, srv
}

func (c *collector) received() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]map[string]any{}, c.payloads...)
}

func newTestClient(endpoint string, page track.PageContext) *track.Client {
	identity := track.NewIdentity(newMemStore(), newMemStore())
	client := track.NewClient(endpoint, identity, page)
	client.Logf = func(format string, args ...any) {}
	return client
}

func TestClient_Send(t *testing.T) {
	t.Run("delivers the fixed payload shape", func(t *testing.T) {
		coll, srv := newCollector(http.StatusOK)
		defer srv.Close()

		client := newTestClient(srv.URL, track.PageContext{
			Path:      "/landing",
			Referrer:  "https://qr.example/scan",
			UserAgent: mobileUA,
			Language:  "fr-FR",
		})

		client.Send(track.EventQRScan, nil)
		client.Flush()

		payloads := coll.received()
		require.Len(t, payloads, 1)
		p := payloads[0]

		assert.Equal(t, "qr_scan", p["type"])
		assert.Equal(t, client.SessionID(), p["sessionId"])
		assert.Equal(t, "/landing", p["page"])
		assert.Equal(t, "https://qr.example/scan", p["referrer"])
		assert.Equal(t, mobileUA, p["userAgent"])
		assert.Equal(t, "mobile", p["deviceType"])
		assert.Equal(t, "fr-FR", p["language"])
		assert.Nil(t, p["extra"])
	})

	t.Run("empty referrer and language go out as null", func(t *testing.T) {
		coll, srv := newCollector(http.StatusOK)
		defer srv.Close()

		client := newTestClient(srv.URL, track.PageContext{
			Path:      "/ent",
			UserAgent: desktopUA,
		})

		client.Send(track.EventStartTyping, nil)
		client.Flush()

		payloads := coll.received()
		require.Len(t, payloads, 1)
		assert.Nil(t, payloads[0]["referrer"])
		assert.Nil(t, payloads[0]["language"])
		assert.Equal(t, "desktop", payloads[0]["deviceType"])
	})

	t.Run("extra payload is carried through", func(t *testing.T) {
		coll, srv := newCollector(http.StatusOK)
		defer srv.Close()

		client := newTestClient(srv.URL, track.PageContext{Path: "/ent", UserAgent: desktopUA})

		client.Send(track.EventCyberTrainingClick, map[string]any{"link": "formation-A"})
		client.Flush()

		payloads := coll.received()
		require.Len(t, payloads, 1)
		extra, ok := payloads[0]["extra"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "formation-A", extra["link"])
	})

	t.Run("server errors are swallowed", func(t *testing.T) {
		_, srv := newCollector(http.StatusInternalServerError)
		defer srv.Close()

		client := newTestClient(srv.URL, track.PageContext{Path: "/", UserAgent: desktopUA})

		client.Send(track.EventQRScan, nil)
		client.Flush()
		// Nothing to assert beyond "did not panic / did not block"
	})

	t.Run("network failure is swallowed", func(t *testing.T) {
		client := newTestClient("http://127.0.0.1:1/collect", track.PageContext{Path: "/", UserAgent: desktopUA})

		client.Send(track.EventQRScan, nil)
		client.Flush()
	})

	t.Run("missing event type sends nothing", func(t *testing.T) {
		coll, srv := newCollector(http.StatusOK)
		defer srv.Close()

		client := newTestClient(srv.URL, track.PageContext{Path: "/", UserAgent: desktopUA})

		client.Send("", nil)
		client.Flush()

		assert.Empty(t, coll.received())
	})
}

func TestClient_Beacon(t *testing.T) {
	coll, srv := newCollector(http.StatusOK)
	defer srv.Close()

	client := newTestClient(srv.URL, track.PageContext{Path: "/landing", UserAgent: mobileUA})

	client.Beacon(track.EventENTButtonClick, nil)

	// Beacons are not tracked by Flush, so poll for arrival
	require.Eventually(t, func() bool {
		return len(coll.received()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "ent_button_click", coll.received()[0]["type"])
}

func TestDeviceType(t *testing.T) {
	assert.Equal(t, "mobile", track.DeviceType(mobileUA))
	assert.Equal(t, "desktop", track.DeviceType(desktopUA))
	// The heuristic is a bare substring check, nothing smarter
	assert.Equal(t, "mobile", track.DeviceType("something Mobi something"))
	assert.Equal(t, "desktop", track.DeviceType(""))
}
