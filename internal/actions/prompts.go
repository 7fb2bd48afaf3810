package actions

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"stackit.dev/pstack/internal/output"
)

// ErrInteractiveDisabled is returned when a prompt is needed but stdin is not a
// terminal or PSTACK_NON_INTERACTIVE is set
var ErrInteractiveDisabled = errors.New("interactive prompts are disabled")

// PromptConfirm asks a yes/no question
func PromptConfirm(message string, defaultValue bool) (bool, error) {
	if !output.IsInteractive() {
		return false, ErrInteractiveDisabled
	}
	confirmed := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return false, fmt.Errorf("canceled")
		}
		return false, err
	}
	return confirmed, nil
}
