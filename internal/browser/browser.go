// Package browser wraps headless Chromium behind a small Session interface
// so crawl logic can be driven by a fake in tests.
package browser

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Session is one navigable browser tab. Every crawl of one site runs in its
// own session so a crashed page never poisons another site's crawl.
type Session interface {
	// Navigate loads the URL and waits for the page to settle.
	Navigate(url string) error
	// HTML returns the rendered markup of the current page.
	HTML() (string, error)
	// CurrentURL returns the page URL after any redirects.
	CurrentURL() (string, error)
	// Title returns the document title.
	Title() (string, error)
	// Eval runs JavaScript in the page and returns the result rendered as
	// a string (JSON for non-primitive values).
	Eval(js string) (string, error)
	// Fill types text into the element matched by the CSS selector.
	Fill(selector, text string) error
	// Click clicks the element matched by the CSS selector.
	Click(selector string) error
	// WaitForSelector blocks until the selector matches a visible element
	// or the timeout elapses.
	WaitForSelector(selector string, timeout time.Duration) error
	// WaitStable blocks until the page layout stops changing or the timeout
	// elapses. Needed after in-page actions that start a navigation, where
	// there is no Navigate call to wait on.
	WaitStable(timeout time.Duration) error
	Close() error
}

// Options configures the shared browser process.
type Options struct {
	Headless    bool
	Stealth     bool
	UserAgent   string
	NavTimeout  time.Duration
	BrowserPath string
}

// Browser owns one Chromium process and hands out sessions.
type Browser struct {
	browser *rod.Browser
	opts    Options
	logger  *slog.Logger
}

// New launches Chromium and connects to it.
func New(opts Options, logger *slog.Logger) (*Browser, error) {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 30 * time.Second
	}

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")
	if opts.BrowserPath != "" {
		l = l.Bin(opts.BrowserPath)
	}

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(launchURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	logger = logger.With("component", "browser")
	logger.Info("browser ready", "headless", opts.Headless, "stealth", opts.Stealth)

	return &Browser{browser: b, opts: opts, logger: logger}, nil
}

// NewSession opens a fresh tab.
func (b *Browser) NewSession() (Session, error) {
	var page *rod.Page
	var err error
	if b.opts.Stealth {
		page, err = stealth.Page(b.browser)
	} else {
		page, err = b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	if b.opts.UserAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.opts.UserAgent})
		if err != nil {
			b.logger.Warn("failed to set user agent", "error", err)
		}
	}

	return &rodSession{
		page:       page,
		navTimeout: b.opts.NavTimeout,
		logger:     b.logger,
	}, nil
}

// Close shuts down the browser process.
func (b *Browser) Close() error {
	return b.browser.Close()
}

type rodSession struct {
	page       *rod.Page
	navTimeout time.Duration
	logger     *slog.Logger
}

func (s *rodSession) Navigate(url string) error {
	if err := s.page.Timeout(s.navTimeout).Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := s.page.Timeout(s.navTimeout).WaitStable(300 * time.Millisecond); err != nil {
		s.logger.Warn("page stability timeout, continuing", "url", url, "error", err)
	}
	return nil
}

func (s *rodSession) HTML() (string, error) {
	return s.page.HTML()
}

func (s *rodSession) CurrentURL() (string, error) {
	info, err := s.page.Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.URL, nil
}

func (s *rodSession) Title() (string, error) {
	info, err := s.page.Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.Title, nil
}

func (s *rodSession) Eval(js string) (string, error) {
	result, err := s.page.Eval(js)
	if err != nil {
		return "", fmt.Errorf("eval: %w", err)
	}
	return result.Value.String(), nil
}

func (s *rodSession) Fill(selector, text string) error {
	el, err := s.page.Timeout(10 * time.Second).Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	_ = el.SelectAllText()
	return el.Input(text)
}

func (s *rodSession) Click(selector string) error {
	el, err := s.page.Timeout(10 * time.Second).Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *rodSession) WaitForSelector(selector string, timeout time.Duration) error {
	el, err := s.page.Timeout(timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return el.WaitVisible()
}

func (s *rodSession) WaitStable(timeout time.Duration) error {
	return s.page.Timeout(timeout).WaitStable(300 * time.Millisecond)
}

func (s *rodSession) Close() error {
	return s.page.Close()
}
