package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the set of colors used for stack listings
var Palette = [][]int{
	{76, 203, 241},  // Light blue
	{77, 202, 125},  // Green
	{245, 200, 0},   // Yellow
	{244, 98, 81},   // Red
	{159, 131, 228}, // Purple
}

func paletteColor(index int) lipgloss.Color {
	c := Palette[index%len(Palette)]
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}

var (
	topStyle       = lipgloss.NewStyle().Foreground(paletteColor(0)).Bold(true)
	appliedStyle   = lipgloss.NewStyle().Foreground(paletteColor(1))
	unappliedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	hiddenStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Faint(true)
	conflictStyle  = lipgloss.NewStyle().Foreground(paletteColor(3)).Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(paletteColor(2))
	idStyle        = lipgloss.NewStyle().Foreground(paletteColor(4))
)

var commandStyle = lipgloss.NewStyle().Foreground(paletteColor(0))

// ColorPatch renders a patch name
func ColorPatch(name string) string {
	return topStyle.Render(name)
}

// ColorConflict renders a conflicted path or a conflict headline
func ColorConflict(text string) string {
	return conflictStyle.Render(text)
}

// ColorCommand renders a command the user can run
func ColorCommand(cmd string) string {
	return commandStyle.Render(cmd)
}
