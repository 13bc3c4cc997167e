package track_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscyber/cyberkpi/track"
)

func newTestPage(t *testing.T, kind track.PageKind) (*track.Page, *collector) {
	t.Helper()

	coll, srv := newCollector(http.StatusOK)
	t.Cleanup(srv.Close)

	client := newTestClient(srv.URL, track.PageContext{
		Path:      "/ent",
		UserAgent: desktopUA,
		Language:  "fr-FR",
	})
	page := track.NewPage(client, kind)

	t.Cleanup(client.Flush)
	return page, coll
}

// eventTypes returns the types of the events the collector has received.
func eventTypes(coll *collector) []string {
	var types []string
	for _, p := range coll.received() {
		if s, ok := p["type"].(string); ok {
			types = append(types, s)
		}
	}
	return types
}

func TestPage_Ready(t *testing.T) {
	t.Run("landing page reports a qr scan", func(t *testing.T) {
		page, coll := newTestPage(t, track.LandingPage)

		page.Ready()
		page.Flush()

		assert.Equal(t, []string{"qr_scan"}, eventTypes(coll))
	})

	t.Run("auth page arrival reports nothing", func(t *testing.T) {
		page, coll := newTestPage(t, track.AuthPage)

		page.Ready()
		page.Flush()

		assert.Empty(t, eventTypes(coll))
	})
}

func TestPage_Input(t *testing.T) {
	t.Run("fires exactly once despite rapid input events", func(t *testing.T) {
		page, coll := newTestPage(t, track.AuthPage)

		page.Input("a")
		page.Input("ab")
		for i := 0; i < 10; i++ {
			page.Input("abcdef")
		}
		page.Flush()

		types := eventTypes(coll)
		assert.Equal(t, 1, count(types, "start_typing"))
		// Threshold crossing also triggers the modal flow
		assert.Equal(t, 1, count(types, "modal_shown"))
	})

	t.Run("below the threshold nothing fires", func(t *testing.T) {
		page, coll := newTestPage(t, track.AuthPage)

		page.Input("ab")
		page.Flush()

		assert.Empty(t, eventTypes(coll))
	})

	t.Run("counts runes, not bytes", func(t *testing.T) {
		page, coll := newTestPage(t, track.AuthPage)

		page.Input("éé") // two runes, four bytes
		page.Flush()
		assert.Empty(t, eventTypes(coll))

		page.Input("ééé")
		page.Flush()
		assert.Equal(t, 1, count(eventTypes(coll), "start_typing"))
	})

	t.Run("disables every bound form control", func(t *testing.T) {
		page, _ := newTestPage(t, track.AuthPage)

		username := &track.Control{}
		password := &track.Control{}
		submit := &track.Control{}
		page.BindForm(username, password, submit)

		page.Input("abc")
		page.Flush()

		assert.True(t, username.Disabled)
		assert.True(t, password.Disabled)
		assert.True(t, submit.Disabled)
	})
}

func TestPage_Modal(t *testing.T) {
	t.Run("shown and closed fire once each", func(t *testing.T) {
		page, coll := newTestPage(t, track.AuthPage)

		page.ShowModal()
		page.ShowModal()
		assert.True(t, page.ModalVisible())

		page.CloseModal()
		page.CloseModal()
		assert.False(t, page.ModalVisible())

		page.Flush()
		types := eventTypes(coll)
		assert.Equal(t, 1, count(types, "modal_shown"))
		assert.Equal(t, 1, count(types, "modal_closed"))
	})

	t.Run("closing before showing is a no-op", func(t *testing.T) {
		page, coll := newTestPage(t, track.AuthPage)

		page.CloseModal()
		page.Flush()

		assert.Empty(t, eventTypes(coll))
	})

	t.Run("reopening does not re-report", func(t *testing.T) {
		page, coll := newTestPage(t, track.AuthPage)

		page.ShowModal()
		page.CloseModal()
		page.ShowModal()
		page.CloseModal()
		page.Flush()

		types := eventTypes(coll)
		assert.Equal(t, 1, count(types, "modal_shown"))
		assert.Equal(t, 1, count(types, "modal_closed"))
	})
}

func TestPage_ClickCTA(t *testing.T) {
	page, coll := newTestPage(t, track.LandingPage)
	page.NavigateDelay = 10 * time.Millisecond

	var mu sync.Mutex
	var navigatedTo string
	navigated := make(chan struct{})
	page.Navigate = func(href string) {
		mu.Lock()
		navigatedTo = href
		mu.Unlock()
		close(navigated)
	}

	start := time.Now()
	page.ClickCTA("/ent")

	// Navigation must not happen synchronously
	mu.Lock()
	assert.Empty(t, navigatedTo)
	mu.Unlock()

	select {
	case <-navigated:
	case <-time.After(2 * time.Second):
		t.Fatal("navigation callback never fired")
	}
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "/ent", navigatedTo)
	mu.Unlock()

	// The beacon is untracked, so poll for it
	require.Eventually(t, func() bool {
		return count(eventTypes(coll), "ent_button_click") == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPage_ClickTrainingLink(t *testing.T) {
	t.Run("uses the logical name and repeats per click", func(t *testing.T) {
		page, coll := newTestPage(t, track.AuthPage)

		page.ClickTrainingLink("formation-A", "https://training.example/a")
		page.ClickTrainingLink("formation-A", "https://training.example/a")
		page.Flush()

		payloads := coll.received()
		require.Len(t, payloads, 2)
		for _, p := range payloads {
			extra, ok := p["extra"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "formation-A", extra["link"])
		}
	})

	t.Run("falls back to the destination URL", func(t *testing.T) {
		page, coll := newTestPage(t, track.AuthPage)

		page.ClickTrainingLink("", "https://training.example/b")
		page.Flush()

		payloads := coll.received()
		require.Len(t, payloads, 1)
		extra, ok := payloads[0]["extra"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "https://training.example/b", extra["link"])
	})
}

func count(types []string, want string) int {
	n := 0
	for _, s := range types {
		if s == want {
			n++
		}
	}
	return n
}
