package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/refyne-linkedin/internal/logger"
)

var (
	// ErrLaunch means Chrome could not be started. It is fatal.
	ErrLaunch = errors.New("browser launch failed")

	// ErrNavigationTimeout means a navigation did not finish loading in
	// time. The page may still be usable.
	ErrNavigationTimeout = errors.New("navigation timeout")

	// ErrClosed is returned by operations on a closed controller.
	ErrClosed = errors.New("browser closed")
)

// Controller owns one Chrome process and its tabs. Switching between
// headless and visible mode needs a new Controller.
type Controller struct {
	cfg Config

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	pages         map[*Page]struct{}
	closed        bool

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup
}

// New creates a controller. Init launches the browser.
func New(cfg Config) *Controller {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:      cfg.withDefaults(),
		pages:    make(map[*Page]struct{}),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Init launches Chrome. The browser lives until Close, not until ctx ends;
// ctx only bounds the launch.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.browserCtx != nil {
		return nil
	}

	if c.cfg.ChromePath == "" {
		c.cfg.ChromePath = FindChromePath()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(c.cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)

	launched := make(chan error, 1)
	go func() { launched <- chromedp.Run(browserCtx) }()

	var err error
	select {
	case err = <-launched:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	c.allocCancel = allocCancel
	c.browserCtx = browserCtx
	c.browserCancel = browserCancel

	logger.Info("browser started",
		"headless", c.cfg.Headless,
		"chrome", c.cfg.ChromePath,
		"window", fmt.Sprintf("%dx%d", c.cfg.WindowWidth, c.cfg.WindowHeight))
	return nil
}

// NewPage opens a new tab in the running browser with the stealth script
// installed.
func (c *Controller) NewPage(ctx context.Context) (*Page, error) {
	c.mu.Lock()
	if c.closed || c.browserCtx == nil {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)
	p := &Page{ctx: tabCtx, cancel: tabCancel, ctrl: c}
	c.pages[p] = struct{}{}
	c.mu.Unlock()

	// The first Run allocates the tab and ties its event loop to the
	// context it is given, so it must be the tab context itself.
	opened := make(chan error, 1)
	go func() { opened <- chromedp.Run(tabCtx, injectStealth()) }()

	timer := time.NewTimer(c.cfg.NavigationTimeout)
	defer timer.Stop()

	var err error
	select {
	case err = <-opened:
	case <-ctx.Done():
		err = ctx.Err()
	case <-timer.C:
		err = context.DeadlineExceeded
	}
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return p, nil
}

// Go runs fn in the background with a context cancelled by Close. Close
// waits for fn to return.
func (c *Controller) Go(fn func(ctx context.Context)) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		fn(c.bgCtx)
	}()
}

func (c *Controller) forget(p *Page) {
	c.mu.Lock()
	delete(c.pages, p)
	c.mu.Unlock()
}

// Close closes every tab, stops background work and shuts Chrome down.
// It is safe to call more than once.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	pages := make([]*Page, 0, len(c.pages))
	for p := range c.pages {
		pages = append(pages, p)
	}
	c.pages = map[*Page]struct{}{}
	c.mu.Unlock()

	for _, p := range pages {
		p.cancel()
	}

	c.bgCancel()
	c.bg.Wait()

	var err error
	if c.browserCtx != nil {
		err = chromedp.Cancel(c.browserCtx)
		c.browserCancel()
		c.allocCancel()
		logger.Debug("browser closed", "tabs", len(pages))
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}
