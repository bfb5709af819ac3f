package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/layout"
	"github.com/matzehuels/orrery/pkg/pipeline"
	"github.com/matzehuels/orrery/pkg/viewmode"
)

// Browser styles
var (
	browseFocusStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	browseHiddenStyle = lipgloss.NewStyle().Foreground(colorDim).Faint(true)
	browseTabStyle    = lipgloss.NewStyle().Foreground(colorGray).Padding(0, 1)
	browseActiveTab   = lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Background(colorCyan).Padding(0, 1)
)

// browseCommand creates the interactive browser command.
func (c *CLI) browseCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "browse <catalog|file>",
		Short: "Explore a system interactively",
		Long: `Explore a system in the terminal.

Keys 1-4 switch the view mode and recompute the layout, ←/→ move the camera
focus through the objects, 0 frames the whole system and q quits.`,
		Example: `  orrery browse sol
  orrery browse alpha-centauri --mode scientific`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeCatalogs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], mode)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(viewmode.DefaultMode), "initial view mode: "+modeList())
	_ = cmd.RegisterFlagCompletionFunc("mode", completeModes)

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, ref, mode string) error {
	initial, ok := viewmode.ParseMode(mode)
	if !ok {
		return fmt.Errorf("unknown view mode %q (want one of %s)", mode, modeList())
	}

	cat, err := c.loadCatalog(ctx, ref)
	if err != nil {
		return err
	}
	svc, err := c.newService(ctx)
	if err != nil {
		return fmt.Errorf("initialize service: %w", err)
	}
	defer svc.Close()

	// Strategy logs would tear the alternate screen.
	c.SetLogLevel(LogWarn)

	strategies := make(map[viewmode.Mode]viewmode.Strategy, len(viewmode.Modes))
	for _, m := range viewmode.Modes {
		if strategies[m], err = viewmode.New(m, svc.Config(), c.Logger); err != nil {
			return err
		}
	}

	compute := func(ctx context.Context, s viewmode.Strategy) (*layout.SystemLayout, error) {
		return svc.CalculateSystemLayout(ctx, cat.Objects, s)
	}
	model := newBrowseModel(ctx, cat.Name, cat.Objects, strategies, initial, compute)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}

// =============================================================================
// browseModel
// =============================================================================

// layoutFunc computes the layout of the browsed system under a strategy.
type layoutFunc func(context.Context, viewmode.Strategy) (*layout.SystemLayout, error)

// layoutMsg delivers a computed layout to the model.
type layoutMsg struct {
	layout *layout.SystemLayout
	err    error
}

// browseModel is the bubbletea model of the interactive browser.
type browseModel struct {
	ctx        context.Context
	name       string
	objects    []celestial.Object
	strategies map[viewmode.Mode]viewmode.Strategy
	session    *viewmode.Session
	compute    layoutFunc

	layout  *layout.SystemLayout
	view    *pipeline.View
	order   []layoutEntry
	cursor  int // index into order; -1 frames the whole system
	loading bool
	err     error
}

func newBrowseModel(ctx context.Context, name string, objects []celestial.Object, strategies map[viewmode.Mode]viewmode.Strategy, initial viewmode.Mode, compute layoutFunc) browseModel {
	return browseModel{
		ctx:        ctx,
		name:       name,
		objects:    objects,
		strategies: strategies,
		session:    viewmode.NewSession(strategies[initial]),
		compute:    compute,
		cursor:     -1,
		loading:    true,
	}
}

func (m browseModel) Init() tea.Cmd {
	return m.load()
}

// load computes the layout for the session's current strategy.
func (m browseModel) load() tea.Cmd {
	strategy := m.session.Current()
	ctx, compute := m.ctx, m.compute
	return func() tea.Msg {
		l, err := compute(ctx, strategy)
		return layoutMsg{layout: l, err: err}
	}
}

// focusID returns the focused object, or "" when the whole system is framed.
func (m browseModel) focusID() string {
	if m.cursor < 0 || m.cursor >= len(m.order) {
		return ""
	}
	return m.order[m.cursor].ID
}

// reframe recomputes the camera and visibility for the current focus.
func (m browseModel) reframe() browseModel {
	if m.layout == nil {
		return m
	}
	view, err := pipeline.Frame(m.layout, m.objects, m.session.Current(), m.focusID())
	if err != nil {
		m.err = err
		return m
	}
	m.view, m.err = view, nil
	return m
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case layoutMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		focus := m.focusID()
		m.layout = msg.layout
		m.order = layoutOrder(msg.layout)
		m.cursor = -1
		for i, e := range m.order {
			if e.ID == focus {
				m.cursor = i
			}
		}
		return m.reframe(), nil

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "1", "2", "3", "4":
			next := viewmode.Modes[key[0]-'1']
			if m.loading || next == m.session.Current().Mode() {
				return m, nil
			}
			m.session.Switch(m.strategies[next])
			m.loading = true
			return m, m.load()
		case "right", "l", "tab":
			if len(m.order) == 0 {
				return m, nil
			}
			m.cursor++
			if m.cursor >= len(m.order) {
				m.cursor = -1
			}
			return m.reframe(), nil
		case "left", "h", "shift+tab":
			if len(m.order) == 0 {
				return m, nil
			}
			m.cursor--
			if m.cursor < -1 {
				m.cursor = len(m.order) - 1
			}
			return m.reframe(), nil
		case "0", "home":
			m.cursor = -1
			return m.reframe(), nil
		}
	}
	return m, nil
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("orrery · " + m.name))
	b.WriteString("\n")

	current := m.session.Current().Mode()
	for i, mode := range viewmode.Modes {
		label := fmt.Sprintf("%d %s", i+1, mode)
		if mode == current {
			b.WriteString(browseActiveTab.Render(label))
		} else {
			b.WriteString(browseTabStyle.Render(label))
		}
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(current.Description()))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(StyleDim.Render("Computing layout..."))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error())
		b.WriteString("\n")
	}

	if m.layout != nil && m.view != nil {
		b.WriteString(m.renderObjects())
		b.WriteString("\n")
		cam := m.view.Camera
		b.WriteString(fmt.Sprintf("%s camera %s %s  distance %s  elevation %s\n",
			StyleHighlight.Render(iconArrow),
			StyleValue.Render(cam.TargetID),
			StyleDim.Render(fmt.Sprintf("(%s)", focusLabel(m.focusID()))),
			StyleValue.Render(fmt.Sprintf("%.2f", cam.Distance)),
			StyleValue.Render(fmt.Sprintf("%.0f°", cam.Elevation))))
		b.WriteString(layoutStats(m.layout))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render("1-4 mode  ←/→ focus  0 system  q quit"))
	return b.String()
}

func focusLabel(id string) string {
	if id == "" {
		return "system"
	}
	return "focus"
}

// renderObjects renders the object tree with the current visibility.
func (m browseModel) renderObjects() string {
	rows := make([][]string, len(m.order))
	for i, e := range m.order {
		r := m.layout.Results[e.ID]
		vis := m.view.Visibility[e.ID]
		marker := "  "
		if i == m.cursor {
			marker = "▸ "
		}
		rows[i] = []string{
			marker + strings.Repeat("  ", e.Depth) + e.ID,
			fmt.Sprintf("%.3f", r.VisualRadius),
			fmt.Sprintf("%.3f", r.OrbitDistance),
			fmt.Sprintf("%.2f", vis.Opacity),
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Object", "Radius", "Distance", "Opacity").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if row == m.cursor {
				return browseFocusStyle
			}
			if row >= 0 && row < len(m.order) && !m.view.Visibility[m.order[row].ID].ShowObject {
				return browseHiddenStyle
			}
			if col == 0 {
				return StyleValue
			}
			return StyleDim
		}).
		Render()
}
