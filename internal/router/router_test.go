// internal/router/router_test.go
package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/gridpilot-cli/api/schemas"
	"github.com/xkilldash9x/gridpilot-cli/internal/pagekit"
)

// fakeExecutor is a no-op executor handed out by the fake host.
type fakeExecutor struct{}

func (fakeExecutor) RunActions(ctx context.Context, actions ...chromedp.Action) error { return nil }

// fakeHost records lifecycle calls.
type fakeHost struct {
	opened    int
	navigated []string
	searched  int
	back      int
	forward   int
	waited    []time.Duration
	tabErr    error
}

func (f *fakeHost) OpenWindow(ctx context.Context) (schemas.WindowHandle, error) {
	f.opened++
	return schemas.WindowHandle{WindowID: 1, TabID: 1}, nil
}
func (f *fakeHost) Navigate(ctx context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return nil
}
func (f *fakeHost) GoBack(ctx context.Context) error    { f.back++; return nil }
func (f *fakeHost) GoForward(ctx context.Context) error { f.forward++; return nil }
func (f *fakeHost) Search(ctx context.Context) error    { f.searched++; return nil }
func (f *fakeHost) Wait(ctx context.Context, d time.Duration) error {
	f.waited = append(f.waited, d)
	return nil
}
func (f *fakeHost) ActiveTab() (pagekit.Executor, error) {
	if f.tabErr != nil {
		return nil, f.tabErr
	}
	return fakeExecutor{}, nil
}

// kitCall records one dispatched page action and its arguments.
type kitCall struct {
	name      schemas.ActionKind
	point     schemas.GridCoordinate
	dest      schemas.GridCoordinate
	text      string
	enter     bool
	clear     bool
	chord     schemas.KeyChord
	direction schemas.Direction
	magnitude int64
}

// fakeKit records install and dispatch calls.
type fakeKit struct {
	installs int
	calls    []kitCall
}

func (f *fakeKit) Install(ctx context.Context, exec pagekit.Executor) error {
	f.installs++
	return nil
}
func (f *fakeKit) ClickAt(ctx context.Context, exec pagekit.Executor, c schemas.GridCoordinate) (bool, error) {
	f.calls = append(f.calls, kitCall{name: schemas.ActionClickAt, point: c})
	return true, nil
}
func (f *fakeKit) HoverAt(ctx context.Context, exec pagekit.Executor, c schemas.GridCoordinate) (bool, error) {
	f.calls = append(f.calls, kitCall{name: schemas.ActionHoverAt, point: c})
	return true, nil
}
func (f *fakeKit) TypeTextAt(ctx context.Context, exec pagekit.Executor, c schemas.GridCoordinate, text string, pressEnter, clearFirst bool) (bool, error) {
	f.calls = append(f.calls, kitCall{name: schemas.ActionTypeTextAt, point: c, text: text, enter: pressEnter, clear: clearFirst})
	return true, nil
}
func (f *fakeKit) KeyCombination(ctx context.Context, exec pagekit.Executor, chord schemas.KeyChord) (bool, error) {
	f.calls = append(f.calls, kitCall{name: schemas.ActionKeyCombination, chord: chord})
	return true, nil
}
func (f *fakeKit) ScrollDocument(ctx context.Context, exec pagekit.Executor, dir schemas.Direction) (bool, error) {
	f.calls = append(f.calls, kitCall{name: schemas.ActionScrollDocument, direction: dir})
	return true, nil
}
func (f *fakeKit) ScrollAt(ctx context.Context, exec pagekit.Executor, c schemas.GridCoordinate, dir schemas.Direction, magnitude int64) (bool, error) {
	f.calls = append(f.calls, kitCall{name: schemas.ActionScrollAt, point: c, direction: dir, magnitude: magnitude})
	return true, nil
}
func (f *fakeKit) DragAndDrop(ctx context.Context, exec pagekit.Executor, src, dst schemas.GridCoordinate) (bool, error) {
	f.calls = append(f.calls, kitCall{name: schemas.ActionDragAndDrop, point: src, dest: dst})
	return true, nil
}

type fakeOracle struct {
	asked []string
}

func (f *fakeOracle) NextTurn(ctx context.Context, req schemas.TurnRequest) (*schemas.TurnReply, error) {
	return &schemas.TurnReply{}, nil
}
func (f *fakeOracle) Ask(ctx context.Context, prompt string) (string, error) {
	f.asked = append(f.asked, prompt)
	return "answer", nil
}

func newTestRouter(t *testing.T) (*Router, *fakeHost, *fakeKit, *fakeOracle) {
	t.Helper()
	host := &fakeHost{}
	kit := &fakeKit{}
	oracle := &fakeOracle{}
	return New(zaptest.NewLogger(t), host, kit, oracle), host, kit, oracle
}

func req(name schemas.ActionKind, args string) schemas.ActionRequest {
	r := schemas.ActionRequest{Name: name}
	if args != "" {
		r.Args = json.RawMessage(args)
	}
	return r
}

func TestRouteUnknownActionName(t *testing.T) {
	r, host, kit, _ := newTestRouter(t)

	_, err := r.Route(context.Background(), req("teleport", `{}`))

	var verr *schemas.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, host.opened)
	assert.Zero(t, kit.installs)
}

func TestRouteCoordinateValidation(t *testing.T) {
	cases := []struct {
		name string
		args string
	}{
		{"negative x", `{"x": -1, "y": 10}`},
		{"x above max", `{"x": 1000, "y": 10}`},
		{"float y", `{"x": 10, "y": 12.5}`},
		{"string x", `{"x": "ten", "y": 10}`},
		{"missing y", `{"x": 10}`},
		{"no args", ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _, kit, _ := newTestRouter(t)

			_, err := r.Route(context.Background(), req(schemas.ActionClickAt, tc.args))

			var verr *schemas.ValidationError
			require.ErrorAs(t, err, &verr, "expected validation failure for %s", tc.args)
			// Invalid requests must be rejected before any dispatch happens.
			assert.Zero(t, kit.installs)
			assert.Empty(t, kit.calls)
		})
	}
}

func TestRouteClickAtDispatches(t *testing.T) {
	r, _, kit, _ := newTestRouter(t)

	val, err := r.Route(context.Background(), req(schemas.ActionClickAt, `{"x": 0, "y": 999}`))

	require.NoError(t, err)
	assert.Equal(t, true, val)
	require.Equal(t, 1, kit.installs)
	require.Len(t, kit.calls, 1)
	assert.Equal(t, schemas.GridCoordinate{X: 0, Y: 999}, kit.calls[0].point)
}

func TestRouteTypeTextDefaults(t *testing.T) {
	r, _, kit, _ := newTestRouter(t)

	_, err := r.Route(context.Background(), req(schemas.ActionTypeTextAt, `{"x": 5, "y": 5, "text": "hello"}`))

	require.NoError(t, err)
	require.Len(t, kit.calls, 1)
	call := kit.calls[0]
	assert.Equal(t, "hello", call.text)
	assert.True(t, call.enter, "press_enter defaults to true")
	assert.True(t, call.clear, "clear_before_typing defaults to true")
}

func TestRouteTypeTextExplicitFlags(t *testing.T) {
	r, _, kit, _ := newTestRouter(t)

	_, err := r.Route(context.Background(), req(schemas.ActionTypeTextAt,
		`{"x": 5, "y": 5, "text": "", "press_enter": false, "clear_before_typing": false}`))

	require.NoError(t, err)
	require.Len(t, kit.calls, 1)
	assert.False(t, kit.calls[0].enter)
	assert.False(t, kit.calls[0].clear)
}

func TestRouteKeyCombination(t *testing.T) {
	r, _, kit, _ := newTestRouter(t)

	_, err := r.Route(context.Background(), req(schemas.ActionKeyCombination, `{"keys": "ctrl+shift+t"}`))

	require.NoError(t, err)
	require.Len(t, kit.calls, 1)
	chord := kit.calls[0].chord
	assert.Equal(t, "t", chord.Key)
	assert.True(t, chord.Has(schemas.ModCtrl))
	assert.True(t, chord.Has(schemas.ModShift))
}

func TestRouteKeyCombinationRejectsTwoKeys(t *testing.T) {
	r, _, kit, _ := newTestRouter(t)

	_, err := r.Route(context.Background(), req(schemas.ActionKeyCombination, `{"keys": "a+b"}`))

	var verr *schemas.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, kit.installs)
}

func TestRouteScrollAtMagnitude(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		r, _, kit, _ := newTestRouter(t)
		_, err := r.Route(context.Background(), req(schemas.ActionScrollAt, `{"x": 1, "y": 2, "direction": "down"}`))
		require.NoError(t, err)
		require.Len(t, kit.calls, 1)
		assert.Equal(t, int64(schemas.DefaultScrollMagnitude), kit.calls[0].magnitude)
	})

	t.Run("clamped high", func(t *testing.T) {
		r, _, kit, _ := newTestRouter(t)
		_, err := r.Route(context.Background(), req(schemas.ActionScrollAt, `{"x": 1, "y": 2, "direction": "up", "magnitude": 5000}`))
		require.NoError(t, err)
		require.Len(t, kit.calls, 1)
		assert.Equal(t, int64(schemas.GridMax), kit.calls[0].magnitude)
	})

	t.Run("bad direction", func(t *testing.T) {
		r, _, kit, _ := newTestRouter(t)
		_, err := r.Route(context.Background(), req(schemas.ActionScrollAt, `{"x": 1, "y": 2, "direction": "sideways"}`))
		var verr *schemas.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Zero(t, kit.installs)
	})
}

func TestRouteDragAndDrop(t *testing.T) {
	r, _, kit, _ := newTestRouter(t)

	_, err := r.Route(context.Background(), req(schemas.ActionDragAndDrop,
		`{"x": 10, "y": 20, "destination_x": 30, "destination_y": 40}`))

	require.NoError(t, err)
	require.Len(t, kit.calls, 1)
	assert.Equal(t, schemas.GridCoordinate{X: 10, Y: 20}, kit.calls[0].point)
	assert.Equal(t, schemas.GridCoordinate{X: 30, Y: 40}, kit.calls[0].dest)
}

func TestRouteLifecycleActions(t *testing.T) {
	r, host, kit, _ := newTestRouter(t)
	ctx := context.Background()

	val, err := r.Route(ctx, req(schemas.ActionOpenWebBrowser, ""))
	require.NoError(t, err)
	assert.Equal(t, schemas.WindowHandle{WindowID: 1, TabID: 1}, val)

	_, err = r.Route(ctx, req(schemas.ActionGoBack, ""))
	require.NoError(t, err)
	_, err = r.Route(ctx, req(schemas.ActionGoForward, ""))
	require.NoError(t, err)
	_, err = r.Route(ctx, req(schemas.ActionSearch, ""))
	require.NoError(t, err)
	_, err = r.Route(ctx, req(schemas.ActionWait5Seconds, ""))
	require.NoError(t, err)

	assert.Equal(t, 1, host.opened)
	assert.Equal(t, 1, host.back)
	assert.Equal(t, 1, host.forward)
	assert.Equal(t, 1, host.searched)
	require.Len(t, host.waited, 1)
	assert.Equal(t, 5*time.Second, host.waited[0])
	// Lifecycle actions never touch the page kit.
	assert.Zero(t, kit.installs)
}

func TestRouteNavigateNormalizesURL(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"https://example.com/a", "https://example.com/a"},
		{"http://example.com", "http://example.com"},
		{"example.com", "https://example.com"},
		{"//example.com/path", "https://example.com/path"},
		{"  example.com  ", "https://example.com"},
		{"about:blank", "about:blank"},
		{"file:///tmp/page.html", "file:///tmp/page.html"},
		// Parses with scheme "localhost", which is not a navigable scheme.
		{"localhost:8080", "https://localhost:8080"},
	}

	for _, tc := range cases {
		r, host, _, _ := newTestRouter(t)
		_, err := r.Route(context.Background(), req(schemas.ActionNavigate, `{"url": `+mustJSON(tc.raw)+`}`))
		require.NoError(t, err)
		require.Len(t, host.navigated, 1)
		assert.Equal(t, tc.want, host.navigated[0], "raw %q", tc.raw)
	}
}

func TestRouteNavigateMissingURL(t *testing.T) {
	r, host, _, _ := newTestRouter(t)

	_, err := r.Route(context.Background(), req(schemas.ActionNavigate, `{}`))

	var verr *schemas.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, host.navigated)
}

func TestRoutePageActionNoActiveTab(t *testing.T) {
	r, host, kit, _ := newTestRouter(t)
	host.tabErr = &schemas.TargetUnavailableError{Reason: "no active tab"}

	_, err := r.Route(context.Background(), req(schemas.ActionClickAt, `{"x": 1, "y": 1}`))

	var terr *schemas.TargetUnavailableError
	require.ErrorAs(t, err, &terr)
	assert.Zero(t, kit.installs)
}

func TestRouteAskTurnOracle(t *testing.T) {
	r, _, _, oracle := newTestRouter(t)

	val, err := r.Route(context.Background(), req(schemas.ActionAskTurnOracle, `{"prompt": "what now"}`))

	require.NoError(t, err)
	assert.Equal(t, "answer", val)
	require.Len(t, oracle.asked, 1)
	assert.Equal(t, "what now", oracle.asked[0])
}

func TestRouteAskTurnOracleWrapsError(t *testing.T) {
	host := &fakeHost{}
	kit := &fakeKit{}
	r := New(zaptest.NewLogger(t), host, kit, failingOracle{})

	_, err := r.Route(context.Background(), req(schemas.ActionAskTurnOracle, `{"prompt": "x"}`))

	var oerr *schemas.OracleError
	require.ErrorAs(t, err, &oerr)
}

type failingOracle struct{}

func (failingOracle) NextTurn(ctx context.Context, req schemas.TurnRequest) (*schemas.TurnReply, error) {
	return nil, errors.New("down")
}
func (failingOracle) Ask(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("down")
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
