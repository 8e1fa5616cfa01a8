package sugar

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ErrorModel is a bubbletea model that can finish with an error of its own.
type ErrorModel interface {
	tea.Model
	GetError() error
}

func RunProgramWithErrors(model ErrorModel, opts ...tea.ProgramOption) (tea.Model, error) {
	resultModel, teaErr := tea.NewProgram(model, opts...).Run()

	// Bubble Tea errors override custom errors
	if teaErr != nil {
		return resultModel, teaErr
	}
	if errorModel, ok := resultModel.(ErrorModel); ok {
		return resultModel, errorModel.GetError()
	}
	return resultModel, nil
}
