package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/orrery/pkg/catalog"
	"github.com/matzehuels/orrery/pkg/layout"
	"github.com/matzehuels/orrery/pkg/pipeline"
	"github.com/matzehuels/orrery/pkg/viewmode"
)

func newTestBrowser(t *testing.T, initial viewmode.Mode) (browseModel, *int) {
	t.Helper()
	ctx := context.Background()

	cat, err := catalog.Builtin.Get(ctx, "sol")
	if err != nil {
		t.Fatal(err)
	}
	svc, err := pipeline.New(pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { svc.Close() })

	strategies := make(map[viewmode.Mode]viewmode.Strategy)
	for _, m := range viewmode.Modes {
		s, err := viewmode.New(m, svc.Config(), nil)
		if err != nil {
			t.Fatal(err)
		}
		strategies[m] = s
	}

	calls := new(int)
	compute := func(ctx context.Context, s viewmode.Strategy) (*layout.SystemLayout, error) {
		*calls++
		return svc.CalculateSystemLayout(ctx, cat.Objects, s)
	}
	return newBrowseModel(ctx, cat.Name, cat.Objects, strategies, initial, compute), calls
}

// send delivers msg and runs the returned command, if any, feeding its
// message back in.
func send(t *testing.T, m browseModel, msg tea.Msg) (browseModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	bm := next.(browseModel)
	if cmd != nil {
		if lm, ok := cmd().(layoutMsg); ok {
			next, cmd = bm.Update(lm)
			bm = next.(browseModel)
		}
	}
	return bm, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseInit(t *testing.T) {
	m, calls := newTestBrowser(t, viewmode.Explorational)
	if !m.loading {
		t.Fatal("model should start loading")
	}
	if !strings.Contains(m.View(), "Computing layout") {
		t.Error("loading view does not say so")
	}

	msg := m.Init()()
	next, _ := m.Update(msg)
	m = next.(browseModel)

	if *calls != 1 || m.loading || m.err != nil {
		t.Fatalf("after init: calls=%d loading=%v err=%v", *calls, m.loading, m.err)
	}
	if m.view == nil || m.view.Camera.TargetID != "sol" {
		t.Fatalf("initial camera should frame sol, got %+v", m.view)
	}
	if m.order[0].ID != "sol" || m.order[0].Depth != 0 {
		t.Errorf("first row = %+v, want sol at depth 0", m.order[0])
	}
	out := m.View()
	for _, want := range []string{"orrery · sol", "explorational", "earth", "camera sol"} {
		if !strings.Contains(out, want) {
			t.Errorf("view is missing %q", want)
		}
	}
}

func TestBrowseFocusCycle(t *testing.T) {
	m, _ := newTestBrowser(t, viewmode.Explorational)
	m, _ = send(t, m, m.Init()())

	m, _ = send(t, m, key("right"))
	if m.focusID() != m.order[0].ID || m.view.Camera.TargetID != m.order[0].ID {
		t.Errorf("right from system: focus=%q camera=%q", m.focusID(), m.view.Camera.TargetID)
	}

	m, _ = send(t, m, key("left"))
	if m.focusID() != "" {
		t.Errorf("left from first object should frame the system, focus=%q", m.focusID())
	}

	m, _ = send(t, m, key("left"))
	last := m.order[len(m.order)-1].ID
	if m.focusID() != last || m.view.FocusID != last {
		t.Errorf("left from system should wrap to %q, got %q", last, m.focusID())
	}

	m, _ = send(t, m, key("0"))
	if m.focusID() != "" || m.view.FocusID != "" {
		t.Errorf("0 should reset focus, got %q", m.focusID())
	}
}

func TestBrowseSwitchModeKeepsFocus(t *testing.T) {
	m, calls := newTestBrowser(t, viewmode.Explorational)
	m, _ = send(t, m, m.Init()())

	for m.focusID() != "earth" {
		m, _ = send(t, m, key("right"))
		if m.focusID() == "" {
			t.Fatal("earth not reachable by cycling focus")
		}
	}

	m, _ = send(t, m, key("3"))
	if got := m.session.Current().Mode(); got != viewmode.Profile {
		t.Fatalf("mode = %s, want profile", got)
	}
	if *calls != 2 {
		t.Errorf("compute calls = %d, want 2", *calls)
	}
	if m.layout.Metadata.ViewMode != string(viewmode.Profile) || m.view.Mode != string(viewmode.Profile) {
		t.Errorf("layout=%s view=%s, want profile", m.layout.Metadata.ViewMode, m.view.Mode)
	}
	if m.focusID() != "earth" || m.view.Camera.TargetID != "earth" {
		t.Errorf("focus after switch = %q, want earth", m.focusID())
	}

	// Pressing the active mode does not recompute.
	m, cmd := send(t, m, key("3"))
	if cmd != nil || *calls != 2 {
		t.Errorf("re-selecting the active mode recomputed (calls=%d)", *calls)
	}
}

func TestBrowseLayoutError(t *testing.T) {
	m, _ := newTestBrowser(t, viewmode.Scientific)
	next, _ := m.Update(layoutMsg{err: errors.New("boom")})
	m = next.(browseModel)
	if m.loading || m.err == nil {
		t.Fatalf("loading=%v err=%v", m.loading, m.err)
	}
	if !strings.Contains(m.View(), "boom") {
		t.Error("view does not show the error")
	}
}

func TestBrowseQuit(t *testing.T) {
	m, _ := newTestBrowser(t, viewmode.Navigational)
	for _, k := range []string{"q", "esc"} {
		_, cmd := m.Update(key(k))
		if cmd == nil {
			t.Fatalf("%s: no command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s did not quit", k)
		}
	}
}
