package track

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Known event types of the awareness funnel, mirrored by the collector's
// aggregates. The wire format carries them as plain strings so new pages
// can add types freely.
const (
	EventQRScan             = "qr_scan"
	EventENTButtonClick     = "ent_button_click"
	EventStartTyping        = "start_typing"
	EventModalShown         = "modal_shown"
	EventModalClosed        = "modal_closed"
	EventCyberTrainingClick = "cyber_training_click"
)

// PageContext is the client metadata reported with every event.
type PageContext struct {
	Path      string
	Referrer  string
	UserAgent string
	Language  string
}

// Client delivers events to the collector. Send is fire-and-forget: it
// never blocks the caller, never returns an error, and records failures
// only for diagnostics.
type Client struct {
	// HTTPClient may be replaced before first use; defaults to a client
	// with a 10s timeout.
	HTTPClient *http.Client
	// Logf receives diagnostic messages; defaults to log.Printf.
	Logf func(format string, args ...any)

	endpoint string
	identity *Identity
	page     PageContext

	wg sync.WaitGroup
}

func NewClient(endpoint string, identity *Identity, page PageContext) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logf:       log.Printf,
		endpoint:   endpoint,
		identity:   identity,
		page:       page,
	}
}

// SessionID exposes the underlying identity.
func (c *Client) SessionID() string {
	return c.identity.SessionID()
}

type eventPayload struct {
	Type       string         `json:"type"`
	SessionID  string         `json:"sessionId"`
	Page       string         `json:"page"`
	Referrer   *string        `json:"referrer"`
	UserAgent  string         `json:"userAgent"`
	DeviceType string         `json:"deviceType"`
	Language   *string        `json:"language"`
	Extra      map[string]any `json:"extra"`
}

func (c *Client) buildPayload(eventType string, extra map[string]any) eventPayload {
	p := eventPayload{
		Type:       eventType,
		SessionID:  c.identity.SessionID(),
		Page:       c.page.Path,
		UserAgent:  c.page.UserAgent,
		DeviceType: DeviceType(c.page.UserAgent),
	}
	if c.page.Referrer != "" {
		p.Referrer = &c.page.Referrer
	}
	if c.page.Language != "" {
		p.Language = &c.page.Language
	}
	if len(extra) > 0 {
		p.Extra = extra
	}
	return p
}

// Send delivers one event asynchronously. Delivery failures are logged
// and swallowed; the page flow is never interrupted.
func (c *Client) Send(eventType string, extra map[string]any) {
	if eventType == "" {
		c.Logf("[KPI] missing event type")
		return
	}

	body, err := json.Marshal(c.buildPayload(eventType, extra))
	if err != nil {
		c.Logf("[KPI] failed to encode %s: %v", eventType, err)
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.post(eventType, body)
	}()
}

// Beacon delivers one event outside the tracked request lifecycle, for
// triggers that immediately unload the page. It cannot report success or
// failure and Flush does not wait for it.
func (c *Client) Beacon(eventType string, extra map[string]any) {
	if eventType == "" {
		return
	}

	body, err := json.Marshal(c.buildPayload(eventType, extra))
	if err != nil {
		return
	}

	go func() {
		resp, err := c.HTTPClient.Post(c.endpoint, "application/json", bytes.NewReader(body))
		if err != nil {
			return
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
}

// Flush waits for in-flight Send calls. Intended for tests and orderly
// shutdown; regular page code never calls it.
func (c *Client) Flush() {
	c.wg.Wait()
}

func (c *Client) post(eventType string, body []byte) {
	resp, err := c.HTTPClient.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		c.Logf("[KPI] failed to send %s: %v", eventType, err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.Logf("[KPI] collector returned %d for %s", resp.StatusCode, eventType)
	}
}

// DeviceType classifies a user agent as mobile or desktop with the same
// single substring check the stored aggregates were built on. Known to be
// coarse for tablets; kept as-is so historical numbers stay comparable.
func DeviceType(userAgent string) string {
	if strings.Contains(strings.ToLower(userAgent), "mobi") {
		return "mobile"
	}
	return "desktop"
}
