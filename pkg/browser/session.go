package browser

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/entrhq/browsercmd/pkg/logging"
	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
)

// Session is the live browser shared by every command.
type Session struct {
	// ID identifies this session instance in logs
	ID string

	// Options are the launch options the session was created with
	Options LaunchOptions

	// StartedAt is the timestamp when the session was launched
	StartedAt time.Time

	// Context is the browser context every tab lives in
	Context playwright.BrowserContext

	// Tabs is the ordered registry of open pages
	Tabs *Tabs

	// Refs holds the element references minted by the latest snapshot
	Refs *RefTable
}

func newSession(bctx playwright.BrowserContext, opts LaunchOptions) *Session {
	refs := NewRefTable()
	return &Session{
		ID:        uuid.NewString(),
		Options:   opts,
		StartedAt: time.Now(),
		Context:   bctx,
		Tabs:      NewTabs(bctx, refs.Invalidate),
		Refs:      refs,
	}
}

// ActivePage returns the active tab, opening a blank one when none is open.
func (s *Session) ActivePage() (playwright.Page, error) {
	if page, _ := s.Tabs.Active(); page != nil {
		return page, nil
	}
	if _, _, err := s.Tabs.Open(""); err != nil {
		return nil, err
	}
	page, _ := s.Tabs.Active()
	if page == nil {
		return nil, Errorf(KindDriver, "no active tab")
	}
	return page, nil
}

func (s *Session) connected() bool {
	b := s.Context.Browser()
	return b == nil || b.IsConnected()
}

func (s *Session) close() error {
	var errs []error
	if err := s.Context.Close(); err != nil {
		errs = append(errs, err)
	}
	if b := s.Context.Browser(); b != nil {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Manager owns the zero-or-one live Session of the process.
type Manager struct {
	mu       sync.Mutex
	driver   Driver
	defaults LaunchOptions
	session  *Session
	logger   *logging.Logger
}

// NewManager creates a manager that launches sessions through driver.
// defaults are used by Ensure and as the base for Launch overrides.
func NewManager(driver Driver, defaults LaunchOptions, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		driver:   driver,
		defaults: defaults.Apply(LaunchOverrides{}),
		logger:   logger,
	}
}

// Defaults returns the launch options used for lazily created sessions.
func (m *Manager) Defaults() LaunchOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.defaults
}

// SetDefaults replaces the launch options used for sessions created later.
// A live session is not affected.
func (m *Manager) SetDefaults(opts LaunchOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults = opts.Apply(LaunchOverrides{})
}

// Ensure returns the live session, launching one with the default options
// if none exists. A session whose browser disconnected is replaced.
func (m *Manager) Ensure(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.liveLocked(); s != nil {
		return s, nil
	}
	return m.launchLocked(ctx, m.defaults)
}

// Launch starts a session with the given overrides. When a session is already
// live it is returned unchanged with created == false and the overrides are ignored.
func (m *Manager) Launch(ctx context.Context, ov LaunchOverrides) (s *Session, created bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.liveLocked(); s != nil {
		return s, false, nil
	}

	s, err = m.launchLocked(ctx, m.defaults.Apply(ov))
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (m *Manager) liveLocked() *Session {
	if m.session == nil {
		return nil
	}
	if m.session.connected() {
		return m.session
	}

	m.logger.Warnf("browser of session %s disconnected, discarding it", m.session.ID)
	_ = m.session.close()
	m.session = nil
	return nil
}

func (m *Manager) launchLocked(ctx context.Context, opts LaunchOptions) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("launch", err)
	}
	if err := opts.Viewport.Validate(); err != nil {
		return nil, wrap("launch", err)
	}

	bctx, err := m.driver.Launch(opts)
	if err != nil {
		return nil, wrap("launch", err)
	}

	s := newSession(bctx, opts)
	if _, _, err := s.Tabs.Open(""); err != nil {
		_ = s.close()
		return nil, err
	}

	m.session = s
	m.logger.Infof("launched session %s (headless=%t viewport=%s)", s.ID, opts.Headless, opts.Viewport)
	return s, nil
}

// Close releases the live session and all its tabs. It reports whether a
// session was open; closing when none exists is a no-op.
func (m *Manager) Close() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	if s == nil {
		return false, nil
	}
	m.session = nil

	m.logger.Infof("closing session %s", s.ID)
	if err := s.close(); err != nil {
		return true, wrap("close", err)
	}
	return true, nil
}

// Current returns the live session or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// IsLive reports whether a session is open.
func (m *Manager) IsLive() bool {
	return m.Current() != nil
}

// Shutdown closes the session and stops the driver.
func (m *Manager) Shutdown() error {
	_, closeErr := m.Close()
	return errors.Join(closeErr, m.driver.Shutdown())
}
