// Package browsertest provides in-memory Playwright fakes for tests.
//
// The fakes embed the Playwright interfaces and implement only the methods
// the browser command layer calls; anything else panics on the nil embedded
// value, which makes an unexpected driver call visible in a test.
package browsertest

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Context is a fake playwright.BrowserContext.
type Context struct {
	playwright.BrowserContext

	mu         sync.Mutex
	pages      []*Page
	NewPageErr error
	CDP        *CDPSession
	Handle     *Browser
	Closed     bool

	// Setup, if set, configures every page before NewPage returns it
	Setup func(*Page)
}

// NewContext returns a context whose browser is connected.
func NewContext() *Context {
	return &Context{
		CDP:    &CDPSession{},
		Handle: &Browser{Connected: true},
	}
}

// NewPage opens a blank fake page.
func (c *Context) NewPage() (playwright.Page, error) {
	if c.NewPageErr != nil {
		return nil, c.NewPageErr
	}
	return c.newPage(), nil
}

func (c *Context) newPage() *Page {
	p := &Page{
		context:  c,
		url:      "about:blank",
		frame:    &Frame{},
		Titles:   make(map[string]string),
		Elements: make(map[string]*Element),
	}
	if c.Setup != nil {
		c.Setup(p)
	}
	c.mu.Lock()
	c.pages = append(c.pages, p)
	c.mu.Unlock()
	return p
}

// Pages returns every page the context created, open or closed.
func (c *Context) Pages() []playwright.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]playwright.Page, 0, len(c.pages))
	for _, p := range c.pages {
		out = append(out, p)
	}
	return out
}

// Page returns the i-th page the context created.
func (c *Context) Page(i int) *Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages[i]
}

// Close closes every open page.
func (c *Context) Close(options ...playwright.BrowserContextCloseOptions) error {
	c.mu.Lock()
	pages := append([]*Page(nil), c.pages...)
	c.Closed = true
	c.mu.Unlock()

	for _, p := range pages {
		_ = p.Close()
	}
	return nil
}

// Browser returns the fake browser, or nil when Handle is unset.
func (c *Context) Browser() playwright.Browser {
	if c.Handle == nil {
		return nil
	}
	return c.Handle
}

// NewCDPSession returns the shared fake CDP session.
func (c *Context) NewCDPSession(page interface{}) (playwright.CDPSession, error) {
	if c.CDP.OpenErr != nil {
		return nil, c.CDP.OpenErr
	}
	c.CDP.mu.Lock()
	c.CDP.Opened++
	c.CDP.mu.Unlock()
	return c.CDP, nil
}

// Browser is a fake playwright.Browser.
type Browser struct {
	playwright.Browser
	Connected bool
	Closed    bool
}

func (b *Browser) IsConnected() bool {
	return b.Connected && !b.Closed
}

func (b *Browser) Close(options ...playwright.BrowserCloseOptions) error {
	b.Closed = true
	return nil
}

// CDPCall is one recorded CDP message.
type CDPCall struct {
	Method string
	Params map[string]interface{}
}

// CDPSession is a fake playwright.CDPSession that records what it is sent.
type CDPSession struct {
	playwright.CDPSession

	mu       sync.Mutex
	Calls    []CDPCall
	Opened   int
	Detached int
	OpenErr  error
	SendErr  error
}

func (s *CDPSession) Send(method string, params map[string]interface{}) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendErr != nil {
		return nil, s.SendErr
	}
	s.Calls = append(s.Calls, CDPCall{Method: method, Params: params})
	return map[string]interface{}{}, nil
}

func (s *CDPSession) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Detached++
	return nil
}

// Frame is a fake main frame.
type Frame struct {
	playwright.Frame
}

// Element configures what a locator resolves to.
type Element struct {
	Text  string
	HTML  string
	Attrs map[string]string

	// Err is returned by every action on the element
	Err error

	// Missing makes WaitFor block until its timeout and then fail with a timeout
	Missing bool

	Screenshot []byte
}

// Page is a fake playwright.Page. Locators are identified by a description
// string: the selector, or "role=<role>[name=\"<name>\"]" for role locators,
// with " >> nth=<n>" appended by Nth.
type Page struct {
	playwright.Page

	mu       sync.Mutex
	context  *Context
	url      string
	title    string
	closed   bool
	history  []string
	pos      int
	frame    *Frame
	actions  []string
	onPopup  []func(playwright.Page)
	onClose  []func(playwright.Page)
	onNav    []func(playwright.Frame)
	evalArgs []string

	// Titles maps URLs to the title a page shows after navigating there
	Titles map[string]string

	// Elements maps locator descriptions to element behaviour
	Elements map[string]*Element

	Aria            string
	AriaErr         error
	HTML            string
	GotoErr         error
	WaitForURLErr   error
	BringToFrontErr error
	EvalResult      interface{}
	EvalErr         error
	Image           []byte
	PDFData         []byte
}

// Actions returns the actions recorded on this page, in order.
func (p *Page) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

func (p *Page) record(format string, args ...interface{}) {
	p.mu.Lock()
	p.actions = append(p.actions, fmt.Sprintf(format, args...))
	p.mu.Unlock()
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

func (p *Page) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) MainFrame() playwright.Frame {
	return p.frame
}

func (p *Page) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	if p.GotoErr != nil {
		return nil, p.GotoErr
	}
	p.Navigate(url)
	return nil, nil
}

// Navigate simulates a main-frame navigation of the page.
func (p *Page) Navigate(url string) {
	p.mu.Lock()
	p.history = append(p.history[:min(p.pos+1, len(p.history))], url)
	p.pos = len(p.history) - 1
	p.url = url
	p.title = p.Titles[url]
	handlers := append(([]func(playwright.Frame))(nil), p.onNav...)
	p.mu.Unlock()

	for _, h := range handlers {
		h(p.frame)
	}
}

func (p *Page) step(delta int) {
	p.mu.Lock()
	next := p.pos + delta
	if next < 0 || next >= len(p.history) {
		p.mu.Unlock()
		return
	}
	p.pos = next
	p.url = p.history[next]
	p.title = p.Titles[p.url]
	handlers := append(([]func(playwright.Frame))(nil), p.onNav...)
	p.mu.Unlock()

	for _, h := range handlers {
		h(p.frame)
	}
}

func (p *Page) GoBack(options ...playwright.PageGoBackOptions) (playwright.Response, error) {
	p.step(-1)
	return nil, nil
}

func (p *Page) GoForward(options ...playwright.PageGoForwardOptions) (playwright.Response, error) {
	p.step(1)
	return nil, nil
}

func (p *Page) Reload(options ...playwright.PageReloadOptions) (playwright.Response, error) {
	p.record("reload")
	p.step(0)
	return nil, nil
}

func (p *Page) BringToFront() error {
	if p.BringToFrontErr != nil {
		return p.BringToFrontErr
	}
	p.record("bringToFront")
	return nil
}

func (p *Page) Close(options ...playwright.PageCloseOptions) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	handlers := append(([]func(playwright.Page))(nil), p.onClose...)
	p.mu.Unlock()

	for _, h := range handlers {
		h(p)
	}
	return nil
}

// OpenPopup simulates the page opening a new window at url.
func (p *Page) OpenPopup(url string) *Page {
	popup := p.context.newPage()
	popup.Navigate(url)

	p.mu.Lock()
	handlers := append(([]func(playwright.Page))(nil), p.onPopup...)
	p.mu.Unlock()

	for _, h := range handlers {
		h(popup)
	}
	return popup
}

func (p *Page) OnPopup(fn func(playwright.Page)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onPopup = append(p.onPopup, fn)
}

func (p *Page) OnClose(fn func(playwright.Page)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClose = append(p.onClose, fn)
}

func (p *Page) OnFrameNavigated(fn func(playwright.Frame)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onNav = append(p.onNav, fn)
}

func (p *Page) Content() (string, error) {
	return p.HTML, nil
}

func (p *Page) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	return &Locator{page: p, desc: selector}
}

func (p *Page) GetByRole(role playwright.AriaRole, options ...playwright.PageGetByRoleOptions) playwright.Locator {
	desc := "role=" + string(role)
	if len(options) > 0 && options[0].Name != nil {
		desc += fmt.Sprintf("[name=%q]", options[0].Name)
	}
	return &Locator{page: p, desc: desc}
}

func (p *Page) Keyboard() playwright.Keyboard {
	return &Keyboard{page: p}
}

func (p *Page) Mouse() playwright.Mouse {
	return &Mouse{page: p}
}

func (p *Page) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	full := len(options) > 0 && options[0].FullPage != nil && *options[0].FullPage
	p.record("screenshot fullPage=%t", full)
	return p.Image, nil
}

func (p *Page) PDF(options ...playwright.PagePdfOptions) ([]byte, error) {
	p.record("pdf")
	return p.PDFData, nil
}

func (p *Page) Evaluate(expression string, arg ...interface{}) (interface{}, error) {
	p.mu.Lock()
	p.evalArgs = append(p.evalArgs, expression)
	p.mu.Unlock()
	return p.EvalResult, p.EvalErr
}

// Evaluated returns the scripts passed to Evaluate.
func (p *Page) Evaluated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.evalArgs...)
}

func (p *Page) WaitForURL(url interface{}, options ...playwright.PageWaitForURLOptions) error {
	if p.WaitForURLErr != nil {
		return p.WaitForURLErr
	}
	want, _ := url.(string)
	if want != "" && !strings.Contains(p.URL(), strings.Trim(want, "*")) {
		timeout := 0.0
		if len(options) > 0 && options[0].Timeout != nil {
			timeout = *options[0].Timeout
		}
		time.Sleep(time.Duration(timeout) * time.Millisecond)
		return timeoutError(timeout)
	}
	return nil
}

func timeoutError(ms float64) error {
	return fmt.Errorf("%w: Timeout %gms exceeded.\nCall log:\n  - waiting", playwright.ErrTimeout, ms)
}

// Keyboard is a fake playwright.Keyboard that records key presses on its page.
type Keyboard struct {
	playwright.Keyboard
	page *Page
}

func (k *Keyboard) Press(key string, options ...playwright.KeyboardPressOptions) error {
	k.page.record("keyboard.press %s", key)
	return nil
}

// Mouse is a fake playwright.Mouse that records wheel events on its page.
type Mouse struct {
	playwright.Mouse
	page *Page
}

func (m *Mouse) Wheel(deltaX, deltaY float64) error {
	m.page.record("mouse.wheel %g %g", deltaX, deltaY)
	return nil
}

// pwLocator names the embedded interface so its field does not collide
// with the interface's own Locator method.
type pwLocator = playwright.Locator

// Locator is a fake playwright.Locator.
type Locator struct {
	pwLocator
	page *Page
	desc string
}

func (l *Locator) String() string {
	return l.desc
}

func (l *Locator) element() *Element {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	if e, ok := l.page.Elements[l.desc]; ok {
		return e
	}
	return &Element{}
}

func (l *Locator) act(format string, args ...interface{}) error {
	if err := l.element().Err; err != nil {
		return err
	}
	l.page.record(format, args...)
	return nil
}

func (l *Locator) Nth(index int) playwright.Locator {
	return &Locator{page: l.page, desc: fmt.Sprintf("%s >> nth=%d", l.desc, index)}
}

func (l *Locator) First() playwright.Locator {
	return l
}

func (l *Locator) AriaSnapshot(options ...playwright.LocatorAriaSnapshotOptions) (string, error) {
	return l.page.Aria, l.page.AriaErr
}

func (l *Locator) Click(options ...playwright.LocatorClickOptions) error {
	button, count := "left", 1
	if len(options) > 0 {
		if options[0].Button != nil {
			button = string(*options[0].Button)
		}
		if options[0].ClickCount != nil {
			count = *options[0].ClickCount
		}
	}
	return l.act("click %s button=%s count=%d", l.desc, button, count)
}

func (l *Locator) Hover(options ...playwright.LocatorHoverOptions) error {
	return l.act("hover %s", l.desc)
}

func (l *Locator) Fill(value string, options ...playwright.LocatorFillOptions) error {
	return l.act("fill %s %q", l.desc, value)
}

func (l *Locator) PressSequentially(text string, options ...playwright.LocatorPressSequentiallyOptions) error {
	delay := 0.0
	if len(options) > 0 && options[0].Delay != nil {
		delay = *options[0].Delay
	}
	return l.act("type %s %q delay=%g", l.desc, text, delay)
}

func (l *Locator) SelectOption(values playwright.SelectOptionValues, options ...playwright.LocatorSelectOptionOptions) ([]string, error) {
	var selected []string
	if values.Values != nil {
		selected = *values.Values
	}
	if err := l.act("select %s %s", l.desc, strings.Join(selected, ",")); err != nil {
		return nil, err
	}
	return selected, nil
}

func (l *Locator) Check(options ...playwright.LocatorCheckOptions) error {
	return l.act("check %s", l.desc)
}

func (l *Locator) Uncheck(options ...playwright.LocatorUncheckOptions) error {
	return l.act("uncheck %s", l.desc)
}

func (l *Locator) Press(key string, options ...playwright.LocatorPressOptions) error {
	return l.act("press %s %s", l.desc, key)
}

func (l *Locator) ScrollIntoViewIfNeeded(options ...playwright.LocatorScrollIntoViewIfNeededOptions) error {
	return l.act("scrollIntoView %s", l.desc)
}

func (l *Locator) Screenshot(options ...playwright.LocatorScreenshotOptions) ([]byte, error) {
	e := l.element()
	if e.Err != nil {
		return nil, e.Err
	}
	l.page.record("screenshot %s", l.desc)
	return e.Screenshot, nil
}

func (l *Locator) InnerText(options ...playwright.LocatorInnerTextOptions) (string, error) {
	e := l.element()
	return e.Text, e.Err
}

func (l *Locator) TextContent(options ...playwright.LocatorTextContentOptions) (string, error) {
	e := l.element()
	return e.Text, e.Err
}

func (l *Locator) InnerHTML(options ...playwright.LocatorInnerHTMLOptions) (string, error) {
	e := l.element()
	return e.HTML, e.Err
}

func (l *Locator) GetAttribute(name string, options ...playwright.LocatorGetAttributeOptions) (string, error) {
	e := l.element()
	if e.Err != nil {
		return "", e.Err
	}
	return e.Attrs[name], nil
}

func (l *Locator) WaitFor(options ...playwright.LocatorWaitForOptions) error {
	e := l.element()
	if e.Err != nil {
		return e.Err
	}
	if !e.Missing {
		return nil
	}
	timeout := 0.0
	if len(options) > 0 && options[0].Timeout != nil {
		timeout = *options[0].Timeout
	}
	time.Sleep(time.Duration(timeout) * time.Millisecond)
	return timeoutError(timeout)
}
