package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

const pollInterval = 250 * time.Millisecond

// ChromeOptions configures the Chrome process.
type ChromeOptions struct {
	ProfileDir string
	Headless   bool
}

// ChromeBrowser drives a local Chrome through the DevTools protocol. It is
// created once per run and shared by every fleet extraction.
type ChromeBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// NewChromeBrowser starts Chrome on the persistent profile directory.
func NewChromeBrowser(ctx context.Context, opts ChromeOptions) (*ChromeBrowser, error) {
	if err := os.MkdirAll(opts.ProfileDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating browser profile dir: %w", err)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(opts.ProfileDir),
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(1440, 900),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// The first Run launches the process; it must not carry a timeout or the
	// browser dies with it.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	return &ChromeBrowser{ctx: browserCtx, cancel: cancel, allocCancel: allocCancel}, nil
}

// NewPage opens a new tab.
func (b *ChromeBrowser) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(b.ctx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("opening tab: %w", err)
	}
	return &chromePage{ctx: tabCtx, cancel: cancel}, nil
}

// Close shuts the browser down.
func (b *ChromeBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions on the tab while honouring the caller's deadline and
// cancellation.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()

	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (p *chromePage) WaitAny(ctx context.Context, selectors ...string) (int, error) {
	encoded, err := json.Marshal(selectors)
	if err != nil {
		return -1, err
	}
	script := fmt.Sprintf(`%s.findIndex(s => document.querySelector(s) !== null)`, encoded)

	for {
		var idx int
		if err := p.run(ctx, chromedp.Evaluate(script, &idx)); err != nil {
			return -1, err
		}
		if idx >= 0 {
			return idx, nil
		}

		select {
		case <-ctx.Done():
			return -1, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (p *chromePage) Texts(ctx context.Context, selector string) ([]string, error) {
	sel, err := json.Marshal(selector)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf(
		`Array.from(document.querySelectorAll(%s)).map(e => (e.innerText || e.textContent || '').trim())`,
		sel,
	)

	var texts []string
	if err := p.run(ctx, chromedp.Evaluate(script, &texts)); err != nil {
		return nil, fmt.Errorf("reading %s: %w", selector, err)
	}
	return texts, nil
}

func (p *chromePage) Click(ctx context.Context, selector string) error {
	if err := p.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("clicking %s: %w", selector, err)
	}
	return nil
}

func (p *chromePage) ClickByText(ctx context.Context, selector, text string) (bool, error) {
	sel, err := json.Marshal(selector)
	if err != nil {
		return false, err
	}
	want, err := json.Marshal(text)
	if err != nil {
		return false, err
	}
	script := fmt.Sprintf(`(() => {
		const el = Array.from(document.querySelectorAll(%s))
			.find(e => (e.innerText || e.textContent || '').trim() === %s);
		if (!el) return false;
		el.click();
		return true;
	})()`, sel, want)

	for {
		var clicked bool
		if err := p.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return false, nil
			}
			return false, err
		}
		if clicked {
			return true, nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return false, nil
			}
			return false, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (p *chromePage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
