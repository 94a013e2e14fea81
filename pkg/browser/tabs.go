package browser

import (
	"errors"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Tabs is the ordered registry of a session's pages and the active index.
//
// The lock is never held across driver calls: Playwright delivers page
// events (popup, close, navigation) on its dispatch goroutine, and those
// handlers take the lock themselves.
type Tabs struct {
	mu         sync.Mutex
	context    playwright.BrowserContext
	pages      []playwright.Page
	active     int
	onNavigate func(playwright.Page)
}

// NewTabs creates an empty registry for bctx. onNavigate, if set, is called
// whenever the main frame of a tracked page navigates.
func NewTabs(bctx playwright.BrowserContext, onNavigate func(playwright.Page)) *Tabs {
	return &Tabs{
		context:    bctx,
		active:     -1,
		onNavigate: onNavigate,
	}
}

// Open creates a page, appends it and makes it active. If url is set the new
// page navigates to it; a failed navigation leaves the tab open.
func (t *Tabs) Open(url string) (index, total int, err error) {
	page, err := t.context.NewPage()
	if err != nil {
		return -1, t.Len(), wrap("newTab", err)
	}
	t.watch(page)

	t.mu.Lock()
	t.pages = append(t.pages, page)
	t.active = len(t.pages) - 1
	index, total = t.active, len(t.pages)
	t.mu.Unlock()

	if url != "" {
		if _, err := page.Goto(url); err != nil {
			return index, total, wrap("newTab", err)
		}
	}
	return index, total, nil
}

// Switch makes the tab at index active.
func (t *Tabs) Switch(index int) (TabInfo, error) {
	t.mu.Lock()
	if index < 0 || index >= len(t.pages) {
		n := len(t.pages)
		t.mu.Unlock()
		return TabInfo{}, Errorf(KindIndexOutOfRange, "tab index %d out of range (%d open)", index, n)
	}
	page := t.pages[index]
	t.mu.Unlock()

	// the active tab only changes once the page is actually in front
	if err := page.BringToFront(); err != nil {
		return TabInfo{}, wrap("switchTab", err)
	}

	t.mu.Lock()
	index = t.indexLocked(page)
	if index < 0 {
		t.mu.Unlock()
		return TabInfo{}, Errorf(KindIndexOutOfRange, "tab was closed while switching to it")
	}
	t.active = index
	t.mu.Unlock()
	return describe(page, index, true), nil
}

// List returns the current tabs in index order.
func (t *Tabs) List() []TabInfo {
	t.mu.Lock()
	pages := append([]playwright.Page(nil), t.pages...)
	active := t.active
	t.mu.Unlock()

	infos := make([]TabInfo, 0, len(pages))
	for i, page := range pages {
		infos = append(infos, describe(page, i, i == active))
	}
	return infos
}

// Close closes the tab at index, or the active tab when index is nil.
// It returns the closed index and the number of remaining tabs.
func (t *Tabs) Close(index *int) (closed, remaining int, err error) {
	t.mu.Lock()
	if len(t.pages) == 0 {
		t.mu.Unlock()
		return -1, 0, Errorf(KindIndexOutOfRange, "no open tabs")
	}
	closed = t.active
	if index != nil {
		closed = *index
	}
	if closed < 0 || closed >= len(t.pages) {
		n := len(t.pages)
		t.mu.Unlock()
		return -1, n, Errorf(KindIndexOutOfRange, "tab index %d out of range (%d open)", closed, n)
	}
	page := t.pages[closed]
	t.removeAt(closed)
	remaining = len(t.pages)
	t.mu.Unlock()

	if err := page.Close(); err != nil && !errors.Is(err, playwright.ErrTargetClosed) {
		return closed, remaining, wrap("closeTab", err)
	}
	return closed, remaining, nil
}

// Active returns the active page and its index, or nil and -1 when no tab is open.
func (t *Tabs) Active() (playwright.Page, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active < 0 {
		return nil, -1
	}
	return t.pages[t.active], t.active
}

// Len returns the number of open tabs.
func (t *Tabs) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pages)
}

// IndexOf returns the index of page or -1.
func (t *Tabs) IndexOf(page playwright.Page) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.indexLocked(page)
}

func (t *Tabs) indexLocked(page playwright.Page) int {
	for i, p := range t.pages {
		if p == page {
			return i
		}
	}
	return -1
}

// removeAt drops the page at i and moves the active pointer: a lower index
// shifts it down, removing the active page activates the page now at the
// same index or the new last page.
func (t *Tabs) removeAt(i int) {
	t.pages = append(t.pages[:i], t.pages[i+1:]...)
	switch {
	case len(t.pages) == 0:
		t.active = -1
	case i < t.active:
		t.active--
	case i == t.active && t.active >= len(t.pages):
		t.active = len(t.pages) - 1
	}
}

func (t *Tabs) watch(page playwright.Page) {
	page.OnPopup(t.adopt)
	page.OnClose(t.forget)
	if t.onNavigate != nil {
		page.OnFrameNavigated(func(frame playwright.Frame) {
			if frame == page.MainFrame() {
				t.onNavigate(page)
			}
		})
	}
}

// adopt appends a page opened by another page without changing the active tab.
func (t *Tabs) adopt(page playwright.Page) {
	t.mu.Lock()
	if t.indexLocked(page) >= 0 {
		t.mu.Unlock()
		return
	}
	t.pages = append(t.pages, page)
	if t.active < 0 {
		t.active = len(t.pages) - 1
	}
	t.mu.Unlock()

	t.watch(page)
}

// forget removes a page that was closed outside of Close.
func (t *Tabs) forget(page playwright.Page) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i := t.indexLocked(page); i >= 0 {
		t.removeAt(i)
	}
}

func describe(page playwright.Page, index int, active bool) TabInfo {
	title, _ := page.Title()
	return TabInfo{
		Index:  index,
		Title:  title,
		URL:    page.URL(),
		Active: active,
	}
}
