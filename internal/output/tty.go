package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// IsTTY reports whether stdin and stdout are terminals
func IsTTY() bool {
	return isTerminal(os.Stdout) && isTerminal(os.Stdin)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsInteractive reports whether prompts may be shown.
// PSTACK_NON_INTERACTIVE disables them regardless of the terminal.
func IsInteractive() bool {
	if os.Getenv("PSTACK_NON_INTERACTIVE") != "" {
		return false
	}
	return IsTTY()
}

// ConfigureColors turns styling off when stdout is not a terminal or NO_COLOR is set
func ConfigureColors() {
	if os.Getenv("NO_COLOR") != "" || !isTerminal(os.Stdout) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}
