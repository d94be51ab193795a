// Package rod renders JavaScript-heavy pages in headless Chrome.
package rod

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fwojciec/distill"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/sync/semaphore"
)

// Ensure Fetcher implements distill.Fetcher at compile time.
var _ distill.Fetcher = (*Fetcher)(nil)

const (
	// DefaultFetchTimeout bounds a single rendered fetch.
	DefaultFetchTimeout = 45 * time.Second

	// DefaultMaxConcurrency is the number of pages rendered at once.
	DefaultMaxConcurrency = 4
)

// serializeJS returns the document HTML including open shadow roots so
// content drawn by web components is visible to extractors.
const serializeJS = `() => {
	const root = document.documentElement;
	if (typeof root.getHTML !== 'function') {
		return '<!DOCTYPE html>' + root.outerHTML;
	}
	const shadowRoots = [];
	const walk = (node) => {
		for (const el of node.querySelectorAll('*')) {
			if (el.shadowRoot) {
				shadowRoots.push(el.shadowRoot);
				walk(el.shadowRoot);
			}
		}
	};
	walk(document);
	return '<!DOCTYPE html><html>' + root.getHTML({shadowRoots}) + '</html>';
}`

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// It either drives a remote browser reached through a DevTools control URL
// or launches and recycles a local one.
//
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager *BrowserManager
	remote  *rod.Browser
	sem     *semaphore.Weighted
	closed  atomic.Bool

	timeout        time.Duration
	controlURL     string
	maxConcurrency int64
	managerOpts    []ManagerOption
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the per-page timeout. Defaults to 45s.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithControlURL connects to an already running browser instead of
// launching one locally.
func WithControlURL(u string) Option {
	return func(f *Fetcher) {
		f.controlURL = u
	}
}

// WithMaxConcurrency limits how many pages render at the same time.
func WithMaxConcurrency(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxConcurrency = n
		}
	}
}

// WithManagerOptions passes options to the local BrowserManager.
func WithManagerOptions(opts ...ManagerOption) Option {
	return func(f *Fetcher) {
		f.managerOpts = append(f.managerOpts, opts...)
	}
}

// NewFetcher creates a new Fetcher.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if the remote browser is unreachable or a local
// Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:        DefaultFetchTimeout,
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.sem = semaphore.NewWeighted(f.maxConcurrency)

	if f.controlURL != "" {
		browser := rod.New().ControlURL(f.controlURL)
		if err := browser.Connect(); err != nil {
			return nil, fmt.Errorf("connecting to remote browser: %w", err)
		}
		f.remote = browser
		return f, nil
	}

	manager, err := NewBrowserManager(f.managerOpts...)
	if err != nil {
		return nil, err
	}
	f.manager = manager
	return f, nil
}

// Fetch navigates to the URL and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.closed.Load() {
		return "", distill.Errorf(distill.EINVALID, "fetcher is closed")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer f.sem.Release(1)

	page, err := f.browser().Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("opening page: %w", err)
	}
	defer func() {
		_ = page.Close()
		if f.manager != nil {
			f.manager.IncrementPageCount()
		}
	}()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", contextError(ctx, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", contextError(ctx, err)
	}

	res, err := page.Eval(serializeJS)
	if err != nil {
		return "", contextError(ctx, err)
	}
	return res.Value.Str(), nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	if f.remote != nil {
		return f.remote.Close()
	}
	return f.manager.Close()
}

// LauncherPID returns the process ID of the local browser launcher, or 0
// when driving a remote browser.
func (f *Fetcher) LauncherPID() int {
	if f.manager == nil {
		return 0
	}
	return f.manager.LauncherPID()
}

func (f *Fetcher) browser() *rod.Browser {
	if f.remote != nil {
		return f.remote
	}
	return f.manager.Browser()
}

// contextError surfaces the context error when rod reports a failure caused
// by cancellation or deadline.
func contextError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}
