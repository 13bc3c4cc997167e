package track

import (
	"time"
	"unicode/utf8"
)

// PageKind marks which campaign page the capture layer is bound to.
type PageKind int

const (
	// LandingPage is the QR-code landing with the ENT login button.
	LandingPage PageKind = iota
	// AuthPage is the fake ENT login form.
	AuthPage
)

const (
	typingThreshold      = 3
	defaultNavigateDelay = 120 * time.Millisecond
)

// Control is a form input or button that can be disabled.
type Control struct {
	Disabled bool
}

// Page owns the capture state of exactly one page load. Every latch here
// resets with the page and is never shared across pages or tabs. Methods
// are meant to be called from a single UI goroutine, matching the
// single-threaded event model of the embedding page.
type Page struct {
	// Navigate is invoked after NavigateDelay when the call-to-action is
	// clicked; nil means the embedding page handles navigation itself.
	Navigate func(href string)
	// NavigateDelay holds the page back long enough for the beacon to
	// leave before the unload kills it.
	NavigateDelay time.Duration

	client *Client
	kind   PageKind
	form   []*Control

	typingTracked   bool
	modalVisible    bool
	modalShownSent  bool
	modalClosedSent bool
}

func NewPage(client *Client, kind PageKind) *Page {
	return &Page{
		NavigateDelay: defaultNavigateDelay,
		client:        client,
		kind:          kind,
	}
}

// BindForm registers the login form controls to disable on typing onset.
func (p *Page) BindForm(controls ...*Control) {
	p.form = controls
}

// Ready reports page arrival. Only the landing page counts as a QR scan.
func (p *Page) Ready() {
	if p.kind == LandingPage {
		p.client.Send(EventQRScan, nil)
	}
}

// ClickCTA handles a click on the ENT login button. Each click is its own
// event. The event goes out as a beacon because the click immediately
// navigates away, and navigation is delayed to let the request leave.
func (p *Page) ClickCTA(href string) {
	p.client.Beacon(EventENTButtonClick, nil)

	if p.Navigate != nil {
		nav := p.Navigate
		time.AfterFunc(p.NavigateDelay, func() { nav(href) })
	}
}

// Input feeds the tracked input's current value. This is the continuous
// change signal, not per-keypress: IME and mobile keyboards do not emit
// reliable keypress events. Fires start_typing once when the value first
// reaches the threshold; the latch never re-arms within a page load.
func (p *Page) Input(value string) {
	if p.typingTracked {
		return
	}
	if utf8.RuneCountInString(value) < typingThreshold {
		return
	}

	p.typingTracked = true
	p.client.Send(EventStartTyping, nil)

	// No more fake credentials once the reveal starts
	for _, ctrl := range p.form {
		ctrl.Disabled = true
	}

	p.ShowModal()
}

// ShowModal makes the awareness modal visible and reports it, once per
// page load.
func (p *Page) ShowModal() {
	if p.modalVisible {
		return
	}
	p.modalVisible = true

	if !p.modalShownSent {
		p.modalShownSent = true
		p.client.Send(EventModalShown, nil)
	}
}

// CloseModal hides the modal, whether via the close control or a click on
// the backdrop, and reports it once per page load.
func (p *Page) CloseModal() {
	if !p.modalVisible {
		return
	}
	p.modalVisible = false

	if !p.modalClosedSent {
		p.modalClosedSent = true
		p.client.Send(EventModalClosed, nil)
	}
}

// ModalVisible reports the current modal state.
func (p *Page) ModalVisible() bool {
	return p.modalVisible
}

// Flush waits for the page's in-flight tracked sends.
func (p *Page) Flush() {
	p.client.Flush()
}

// ClickTrainingLink reports a click on an outbound training link, carrying
// the link's logical name or, absent that, its destination URL. Each
// click is its own event.
func (p *Page) ClickTrainingLink(name, href string) {
	link := name
	if link == "" {
		link = href
	}
	p.client.Send(EventCyberTrainingClick, map[string]any{"link": link})
}
