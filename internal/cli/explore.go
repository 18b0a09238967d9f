package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/errors"
	"github.com/matzehuels/controlgraph/pkg/render"
	"github.com/matzehuels/controlgraph/pkg/render/term"
	"github.com/matzehuels/controlgraph/pkg/view"
)

// Explorer chrome, in terminal rows.
const (
	exploreHeaderRows = 2
	exploreDetailRows = 4
	quickAccessKeys   = 9
)

var (
	exploreHelpStyle  = lipgloss.NewStyle().Foreground(colorDim)
	exploreLabelStyle = lipgloss.NewStyle().Foreground(colorGray).Width(10)
)

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		focus   string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Explore the framework graph interactively in the terminal",
		Long: `Explore the framework graph interactively in the terminal.

Click a framework to focus it: related frameworks gather on an inner ring and
the rest move to an outer ring. Click it again, click empty space or press esc
to return to the circle. Keys 1-9 focus the most connected frameworks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			m := c.newExploreModel(cat, !noColor)
			if focus != "" {
				if err := m.view.Focus(focus); err != nil {
					return err
				}
			}
			return runExplore(cmd.Context(), m)
		},
	}

	cmd.Flags().StringVar(&focus, "focus", "", "framework to focus on start")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colors")
	_ = cmd.RegisterFlagCompletionFunc("focus", c.completeFrameworkIDs)

	return cmd
}

func runExplore(ctx context.Context, m exploreModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "terminal explorer")
	}
	return nil
}

// =============================================================================
// exploreModel - Interactive radial graph
// =============================================================================

// tickMsg advances the animation by one step.
type tickMsg struct{}

// exploreModel is the bubbletea model for the terminal explorer. Bubbletea
// delivers messages on one goroutine, so the view needs no further
// serialization here.
type exploreModel struct {
	cat      *catalog.Catalog
	view     *view.View
	quick    []catalog.Framework
	interval time.Duration
	color    bool

	width, height int
	ticking       bool
}

func (c *CLI) newExploreModel(cat *catalog.Catalog, color bool) exploreModel {
	tui := c.cfg.TUI
	opts := append(c.cfg.View.Options(),
		view.WithPickRadius(tui.PickRadius),
		view.WithLogger(c.Logger),
	)
	return exploreModel{
		cat:      cat,
		view:     view.New(cat, opts...),
		quick:    cat.QuickAccess(quickAccessKeys),
		interval: tui.FrameInterval,
		color:    color,
	}
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.view.ClearFocus()
		default:
			if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.quick) {
				_ = m.view.Focus(m.quick[n-1].ID)
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.view.Resize(term.Viewport(m.width, m.canvasRows()))

	case tea.MouseMsg:
		row := msg.Y - exploreHeaderRows
		if row < 0 || row >= m.canvasRows() {
			m.view.Leave()
			break
		}
		p := term.PointAt(msg.X, row)
		switch {
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			m.view.Click(p)
		case msg.Action == tea.MouseActionMotion:
			m.view.Hover(p)
		}

	case tickMsg:
		m.ticking = false
		m.view.Tick()
	}

	cmd := m.arm()
	return m, cmd
}

// arm schedules the next animation step while the view is moving. At most
// one tick is in flight.
func (m *exploreModel) arm() tea.Cmd {
	if m.ticking || !m.view.Animating() {
		return nil
	}
	m.ticking = true
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m exploreModel) canvasRows() int {
	return max(m.height-exploreHeaderRows-exploreDetailRows, 1)
}

func (m exploreModel) View() string {
	if m.width == 0 {
		return ""
	}
	var b strings.Builder

	title := StyleTitle.Render(appName)
	if id, ok := m.view.Selected(); ok {
		title += StyleDim.Render(" · focus ") + StyleHighlight.Render(id)
	}
	b.WriteString(title + "\n")
	b.WriteString(exploreHelpStyle.Render(m.helpLine()) + "\n")

	f := m.view.Frame()
	b.WriteString(term.Render(f, m.width, m.canvasRows(), term.Options{Color: m.color, Labels: true}))
	b.WriteString("\n")
	b.WriteString(m.detail(f))
	return b.String()
}

func (m exploreModel) helpLine() string {
	keys := make([]string, 0, len(m.quick))
	for i, fw := range m.quick {
		keys = append(keys, fmt.Sprintf("%d %s", i+1, fw.DisplayLabel()))
	}
	return "click focus · esc clear · q quit · " + strings.Join(keys, "  ")
}

// detail describes the hovered framework, or the focused one when nothing
// is hovered.
func (m exploreModel) detail(f view.Frame) string {
	id := f.Hovered
	if id == "" {
		id = f.Selected
	}
	fw, ok := m.cat.Framework(id)
	if !ok {
		return StyleDim.Render(fmt.Sprintf("%d frameworks · %d relations", len(f.Nodes), len(f.Edges)))
	}

	category := lipgloss.NewStyle().Foreground(lipgloss.Color(render.CategoryColor(fw.Category))).Render(fw.Category.Title())
	lines := []string{
		StyleValue.Bold(true).Render(fw.Name) + "  " + category,
		exploreLabelStyle.Render("Controls") + StyleNumber.Render(strconv.Itoa(fw.ControlCount)) +
			StyleDim.Render(" · ") + StyleNumber.Render(strconv.Itoa(fw.RelationCount)) + StyleDim.Render(" related"),
	}
	if fw.Region != "" {
		lines = append(lines, exploreLabelStyle.Render("Region")+StyleValue.Render(fw.Region))
	}
	if id == f.Selected {
		// Strongest first.
		var names []string
		for _, n := range m.cat.Neighbors(id) {
			names = append(names, fmt.Sprintf("%s %d%%", n.Framework.DisplayLabel(), int(n.Strength*100+0.5)))
		}
		lines = append(lines, exploreLabelStyle.Render("Related")+StyleValue.Render(strings.Join(names, ", ")))
	}
	return strings.Join(lines, "\n")
}
