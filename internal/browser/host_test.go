// internal/browser/host_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/gridpilot-cli/api/schemas"
	"github.com/xkilldash9x/gridpilot-cli/internal/config"
)

func newTestHost(t *testing.T) *Host {
	t.Helper()
	cfg := config.BrowserConfig{
		Headless:          true,
		WindowWidth:       1280,
		WindowHeight:      800,
		NavigationTimeout: 5 * time.Second,
		CaptureTimeout:    5 * time.Second,
		SearchURL:         "https://www.google.com",
	}
	h := NewHost(cfg, zaptest.NewLogger(t))
	t.Cleanup(h.Close)
	return h
}

// Everything below exercises the host without a live browser: target
// resolution and error taxonomy must hold before Chrome ever starts.

func TestActiveTabWithoutWindow(t *testing.T) {
	h := newTestHost(t)

	_, err := h.ActiveTab()

	var terr *schemas.TargetUnavailableError
	require.ErrorAs(t, err, &terr)
	assert.Contains(t, err.Error(), "no active tab")
}

func TestNavigationActionsWithoutWindow(t *testing.T) {
	h := newTestHost(t)
	ctx := context.Background()

	var terr *schemas.TargetUnavailableError
	require.ErrorAs(t, h.Navigate(ctx, "https://example.com"), &terr)
	require.ErrorAs(t, h.GoBack(ctx), &terr)
	require.ErrorAs(t, h.GoForward(ctx), &terr)
	require.ErrorAs(t, h.Search(ctx), &terr)
}

func TestCaptureScreenshotWithoutWindow(t *testing.T) {
	h := newTestHost(t)

	_, err := h.CaptureScreenshot(context.Background())

	// Capture failures always wear the capture type; the loop decides whether
	// that terminates the run.
	var cerr *schemas.CaptureError
	require.ErrorAs(t, err, &cerr)
	var terr *schemas.TargetUnavailableError
	assert.ErrorAs(t, err, &terr)
}

func TestWait(t *testing.T) {
	h := newTestHost(t)

	t.Run("completes after the duration", func(t *testing.T) {
		start := time.Now()
		require.NoError(t, h.Wait(context.Background(), 10*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := h.Wait(ctx, time.Minute)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestCloseIsIdempotent(t *testing.T) {
	h := newTestHost(t)

	h.Close()
	h.Close()

	_, err := h.ActiveTab()
	var terr *schemas.TargetUnavailableError
	require.ErrorAs(t, err, &terr)
}

func TestTabRunActionsRejectsCancelledContext(t *testing.T) {
	tabCtx, tabCancel := context.WithCancel(context.Background())
	defer tabCancel()
	tab := &Tab{ID: 1, WindowID: 1, ctx: tabCtx, cancel: tabCancel}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tab.RunActions(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
