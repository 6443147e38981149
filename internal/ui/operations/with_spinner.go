package operations

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ignitionstack/modelreg/internal/ui/models/spinner"
)

// WithSpinner runs operation while a spinner shows message. With plain set the
// operation runs without any animation.
func WithSpinner[T any](message string, plain bool, operation func() (T, error)) (T, error) {
	if plain {
		return operation()
	}

	program := tea.NewProgram(spinner.NewModel(message))

	go func() {
		result, err := operation()
		if err != nil {
			program.Send(spinner.ErrorMsg{Err: err})
			return
		}
		program.Send(spinner.ResultMsg{Result: result})
	}()

	var zero T
	model, err := program.Run()
	if err != nil {
		return zero, err
	}

	finalModel, ok := model.(spinner.Model)
	if !ok {
		return zero, fmt.Errorf("program finished with invalid model")
	}
	if finalModel.HasError() {
		return zero, finalModel.GetError()
	}

	result, ok := finalModel.GetResult().(T)
	if !ok {
		return zero, fmt.Errorf("unexpected result type %T", finalModel.GetResult())
	}
	return result, nil
}
