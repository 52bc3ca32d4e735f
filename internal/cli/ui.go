package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/annoview/pkg/layout"
)

var (
	colorCyan    = lipgloss.Color("36")  // primary
	colorGreen   = lipgloss.Color("35")  // success
	colorYellow  = lipgloss.Color("220") // warnings
	colorRed     = lipgloss.Color("167") // errors
	colorMagenta = lipgloss.Color("170") // triggers
	colorWhite   = lipgloss.Color("255")
	colorGray    = lipgloss.Color("245")
	colorDim     = lipgloss.Color("240")
)

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleEntity  = lipgloss.NewStyle().Foreground(colorCyan)
	styleTrigger = lipgloss.NewStyle().Foreground(colorMagenta).Bold(true)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented dim line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints layout counts on a single line.
func printStats(s layout.LayoutStats, cached bool) {
	fmt.Println(statsLine(s, cached))
}

func statsLine(s layout.LayoutStats, cached bool) string {
	parts := []string{
		fmt.Sprintf("%d spans", s.Spans),
		fmt.Sprintf("%d arcs", s.Arcs),
		fmt.Sprintf("%d rows", s.Rows),
	}
	status := styleComputed.Render(iconFresh)
	if cached {
		status = styleCached.Render(iconCached)
	}
	for i := range parts {
		parts[i] = StyleDim.Render(parts[i])
	}
	parts = append(parts, status)
	return "  " + strings.Join(parts, StyleDim.Render(" · "))
}

// printWarnings lists non-fatal layout findings.
func printWarnings(warnings []string) {
	for _, w := range warnings {
		printWarning("%s", w)
	}
}
