package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gemlock/pkg/lockio"
	"github.com/matzehuels/gemlock/pkg/platform"
	"github.com/matzehuels/gemlock/pkg/resolve"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [gemlock.json]",
		Short: "Browse a lock file interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultLockFile
			if len(args) > 0 {
				path = args[0]
			}
			lock, err := lockio.ImportJSON(path)
			if err != nil {
				return err
			}
			if len(lock.Gems) == 0 {
				printInfo("%s locks no gems", path)
				return nil
			}
			_, err = tea.NewProgram(NewLockModel(lock), tea.WithAltScreen()).Run()
			return err
		},
	}
}

// =============================================================================
// LockModel - Interactive lock file browser
// =============================================================================

// LockModel is the bubbletea model for browsing a lock file. The list view
// shows one row per locked build; enter opens the detail view of a gem.
type LockModel struct {
	Lock   *lockio.Lock
	Cursor int
	Height int
	Offset int

	// Detail is the gem shown in the detail view, nil in the list view.
	Detail *resolve.ResolvedGem
}

// NewLockModel creates a browser over lock.
func NewLockModel(lock *lockio.Lock) LockModel {
	return LockModel{Lock: lock, Height: 15}
}

func (m LockModel) Init() tea.Cmd {
	return nil
}

func (m LockModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc", "backspace":
			if m.Detail == nil {
				return m, tea.Quit
			}
			m.Detail = nil
		case "up", "k":
			if m.Detail == nil && m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Detail == nil && m.Cursor < len(m.Lock.Gems)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if m.Detail == nil && len(m.Lock.Gems) > 0 {
				g := m.Lock.Gems[m.Cursor]
				m.Detail = &g
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m LockModel) View() string {
	if m.Detail != nil {
		return m.detailView()
	}
	return m.listView()
}

func (m LockModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Locked Gems"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Lock.Gems))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		g := m.Lock.Gems[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, g.Name, g.Version, platform.Normalize(g.Platform), dashIfEmpty(strings.Join(g.Groups, ", "))})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Gem", "Version", "Platform", "Groups").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Lock.Gems) {
				return lipgloss.NewStyle()
			}
			direct := len(m.Lock.Gems[idx].Groups) > 0
			base := lipgloss.NewStyle()
			if col == 3 || col == 4 {
				base = base.Foreground(colorDim)
			}
			switch {
			case idx == m.Cursor:
				return base.Foreground(colorCyan).Bold(true)
			case direct && col != 3 && col != 4:
				return base.Foreground(colorGreen)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Lock.Gems))))

	return b.String()
}

func (m LockModel) detailView() string {
	g := m.Detail
	var b strings.Builder

	b.WriteString(StyleTitle.Render(g.Name + " " + g.Version))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q quit"))
	b.WriteString("\n\n")

	b.WriteString(listNormalStyle.Render("platform  " + platform.Normalize(g.Platform)))
	b.WriteString("\n")
	if len(g.Groups) > 0 {
		b.WriteString(listNormalStyle.Render("groups    " + strings.Join(g.Groups, ", ")))
		b.WriteString("\n")
	}
	if g.RequiredRuby != "" {
		b.WriteString(listNormalStyle.Render("ruby      " + g.RequiredRuby))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listSelectedStyle.Render("Depends on"))
	b.WriteString("\n")
	if len(g.Dependencies) == 0 {
		b.WriteString(listDimStyle.Render("  nothing"))
		b.WriteString("\n")
	}
	for _, d := range g.Dependencies {
		b.WriteString(fmt.Sprintf("  %s %s\n", d.Name, listDimStyle.Render(d.Requirement)))
	}

	b.WriteString("\n")
	b.WriteString(listSelectedStyle.Render("Required by"))
	b.WriteString("\n")
	dependents := m.Lock.Dependents(g.Name)
	if len(dependents) == 0 {
		b.WriteString(listDimStyle.Render("  the manifest only"))
		b.WriteString("\n")
	}
	for _, name := range dependents {
		b.WriteString("  " + name + "\n")
	}

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func dashIfEmpty(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
