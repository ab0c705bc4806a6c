package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/gemlock/pkg/platform"
	"github.com/matzehuels/gemlock/pkg/resolve"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// =============================================================================
// File Output
// =============================================================================

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Key-Value Output
// =============================================================================

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Resolution Display
// =============================================================================

// printStats prints a resolution summary on a single line.
func printStats(gems int, stats resolve.Stats, hits, misses int64) {
	parts := []string{
		fmt.Sprintf("%d gems", gems),
		fmt.Sprintf("%d decisions", stats.Decisions),
	}
	if stats.Conflicts > 0 {
		parts = append(parts, fmt.Sprintf("%d conflicts", stats.Conflicts))
	}

	status := iconFresh
	statusStyle := styleComputed
	if misses == 0 && hits > 0 {
		status = iconCached
		statusStyle = styleCached
	} else if hits > 0 {
		status = fmt.Sprintf("%d cached", hits)
	}
	parts = append(parts, statusStyle.Render(status))

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Println(line)
}

// gemTable renders resolved gems as a table.
func gemTable(gems []resolve.ResolvedGem) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, 0, len(gems))
	for _, g := range gems {
		plat := g.Platform
		if plat == "" {
			plat = platform.Ruby
		}
		rows = append(rows, []string{g.Name, g.Version, plat, strings.Join(g.Groups, ", ")})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Gem", "Version", "Platform", "Groups").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 1:
				return StyleNumber
			case col == 0 && len(gems[row].Groups) > 0:
				return StyleValue.Bold(true)
			case col == 0:
				return StyleValue
			default:
				return StyleDim
			}
		})
	return t.Render()
}

// change is one difference between two lock files.
type change struct {
	name, from, to string
}

// diffLocks lists gems whose version appeared, disappeared or moved.
func diffLocks(prev, next []resolve.ResolvedGem) []change {
	before := make(map[string]string)
	for _, g := range prev {
		before[g.Name] = g.Version
	}
	after := make(map[string]string)
	for _, g := range next {
		after[g.Name] = g.Version
	}

	var out []change
	for name, v := range after {
		if before[name] != v {
			out = append(out, change{name: name, from: before[name], to: v})
		}
	}
	for name, v := range before {
		if _, ok := after[name]; !ok {
			out = append(out, change{name: name, from: v})
		}
	}
	slices.SortFunc(out, func(a, b change) int { return strings.Compare(a.name, b.name) })
	return out
}

// printChanges prints the result of diffLocks.
func printChanges(changes []change) {
	for _, ch := range changes {
		switch {
		case ch.from == "":
			fmt.Println("  " + StyleSuccess.Render("+") + " " + ch.name + " " + StyleNumber.Render(ch.to))
		case ch.to == "":
			fmt.Println("  " + styleIconError.Render("-") + " " + ch.name + " " + StyleDim.Render(ch.from))
		default:
			fmt.Println("  " + StyleHighlight.Render("~") + " " + ch.name + " " +
				StyleDim.Render(ch.from) + " " + StyleDim.Render(iconArrow) + " " + StyleNumber.Render(ch.to))
		}
	}
}

// printExplanation prints a failure explanation, dimming line numbers.
func printExplanation(lines []string) {
	for _, line := range lines {
		if num, rest, ok := strings.Cut(line, ") "); ok && strings.HasPrefix(num, "(") {
			fmt.Println(StyleDim.Render(num+")") + " " + rest)
			continue
		}
		fmt.Println(line)
	}
}

// =============================================================================
// Commands & Next Steps
// =============================================================================

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}
