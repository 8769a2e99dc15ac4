// internal/browser/host.go

// Package browser is the host collaborator: it owns the Chrome process,
// window/tab lifecycle, navigation and screenshot capture over CDP. Page
// semantics live elsewhere; this package only moves tabs around and hands
// out executors for them.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/gridpilot-cli/api/schemas"
	"github.com/xkilldash9x/gridpilot-cli/internal/config"
	"github.com/xkilldash9x/gridpilot-cli/internal/pagekit"
)

// Tab is one open page. It satisfies the executor interface consumed by the
// page kit.
type Tab struct {
	ID       int64
	WindowID int64

	ctx    context.Context
	cancel context.CancelFunc
}

// RunActions executes chromedp actions against this tab. The tab's master
// context carries the CDP wiring; the operational context only contributes
// cancellation, mirroring the session executor split in long-lived CDP code.
func (t *Tab) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		// Report the caller's cancellation in preference to the derived one.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Host manages the browser process and its windows/tabs. All mutation goes
// through the mutex; the automation loop is sequential, but direct command
// callers are not required to be.
type Host struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	mu         sync.Mutex
	allocCtx   context.Context
	allocStop  context.CancelFunc
	tabs       map[int64]*Tab
	activeTab  *Tab
	nextWindow int64
	nextTab    int64
}

// NewHost creates a host. The Chrome process itself starts lazily on the
// first OpenWindow.
func NewHost(cfg config.BrowserConfig, logger *zap.Logger) *Host {
	return &Host{
		logger: logger.Named("browser"),
		cfg:    cfg,
		tabs:   make(map[int64]*Tab),
	}
}

// ensureAllocatorLocked starts the exec allocator once. Callers hold h.mu.
func (h *Host) ensureAllocatorLocked() {
	if h.allocCtx != nil {
		return
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", h.cfg.Headless),
		chromedp.WindowSize(h.cfg.WindowWidth, h.cfg.WindowHeight),
	)
	if h.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(h.cfg.UserAgent))
	}

	h.allocCtx, h.allocStop = chromedp.NewExecAllocator(context.Background(), opts...)
	h.logger.Info("Browser allocator initialized.",
		zap.Bool("headless", h.cfg.Headless),
		zap.Int("width", h.cfg.WindowWidth),
		zap.Int("height", h.cfg.WindowHeight),
	)
}

// OpenWindow opens a fresh window with one tab, makes it the active tab and
// returns both identifiers.
func (h *Host) OpenWindow(ctx context.Context) (schemas.WindowHandle, error) {
	h.mu.Lock()
	h.ensureAllocatorLocked()
	h.nextWindow++
	h.nextTab++
	windowID := h.nextWindow
	tabID := h.nextTab
	tabCtx, tabCancel := chromedp.NewContext(h.allocCtx)
	h.mu.Unlock()

	tab := &Tab{ID: tabID, WindowID: windowID, ctx: tabCtx, cancel: tabCancel}

	// Force the target to actually start before reporting success.
	if err := tab.RunActions(ctx, chromedp.Navigate("about:blank")); err != nil {
		tabCancel()
		return schemas.WindowHandle{}, &schemas.TargetUnavailableError{Reason: "failed to open browser window", Cause: err}
	}

	h.mu.Lock()
	h.tabs[tabID] = tab
	h.activeTab = tab
	h.mu.Unlock()

	h.logger.Info("Opened browser window.", zap.Int64("window_id", windowID), zap.Int64("tab_id", tabID))
	return schemas.WindowHandle{WindowID: windowID, TabID: tabID}, nil
}

// active returns the currently active tab of the currently focused window,
// or a TargetUnavailableError when none exists.
func (h *Host) active() (*Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.activeTab == nil {
		return nil, &schemas.TargetUnavailableError{Reason: "no active tab"}
	}
	return h.activeTab, nil
}

// ActiveTab exposes the active tab as a page-kit executor for the router.
func (h *Host) ActiveTab() (pagekit.Executor, error) {
	return h.active()
}

// Navigate points the active tab at the given (already normalized) URL.
func (h *Host) Navigate(ctx context.Context, url string) error {
	tab, err := h.active()
	if err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, h.cfg.NavigationTimeout)
	defer cancel()

	if err := tab.RunActions(opCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %q failed: %w", url, err)
	}
	return nil
}

// GoBack walks the active tab one entry back in history.
func (h *Host) GoBack(ctx context.Context) error {
	tab, err := h.active()
	if err != nil {
		return err
	}
	return tab.RunActions(ctx, chromedp.NavigateBack())
}

// GoForward walks the active tab one entry forward in history.
func (h *Host) GoForward(ctx context.Context) error {
	tab, err := h.active()
	if err != nil {
		return err
	}
	return tab.RunActions(ctx, chromedp.NavigateForward())
}

// Search points the active tab at the configured search engine.
func (h *Host) Search(ctx context.Context) error {
	return h.Navigate(ctx, h.cfg.SearchURL)
}

// Wait pauses for the given duration, respecting cancellation.
func (h *Host) Wait(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CaptureScreenshot captures the visible area of the active tab as encoded
// image bytes. Every failure path is a CaptureError; the loop decides
// whether that is fatal.
func (h *Host) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	tab, err := h.active()
	if err != nil {
		return nil, &schemas.CaptureError{Cause: err}
	}

	opCtx, cancel := context.WithTimeout(ctx, h.cfg.CaptureTimeout)
	defer cancel()

	var buf []byte
	if err := tab.RunActions(opCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, &schemas.CaptureError{Cause: err}
	}
	if len(buf) == 0 {
		return nil, &schemas.CaptureError{Cause: fmt.Errorf("capture produced no image data")}
	}
	return buf, nil
}

// Close tears down every tab and the browser process.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, tab := range h.tabs {
		tab.cancel()
		delete(h.tabs, id)
	}
	h.activeTab = nil
	if h.allocStop != nil {
		h.allocStop()
		h.allocCtx = nil
		h.allocStop = nil
	}
	h.logger.Debug("Browser host closed.")
}
