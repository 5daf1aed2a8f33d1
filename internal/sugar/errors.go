// Package sugar holds small conveniences around Bubble Tea programs.
package sugar

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ErrorModel is a tea.Model that can end with a domain error of its own.
type ErrorModel interface {
	tea.Model
	GetError() error
}

// RunProgramWithErrors runs the model and surfaces its domain error, unless
// Bubble Tea itself failed, in which case that error wins.
func RunProgramWithErrors(model ErrorModel) (tea.Model, error) {
	resultModel, teaErr := tea.NewProgram(model).Run()

	var err error
	if errorModel, ok := resultModel.(ErrorModel); ok {
		err = errorModel.GetError()
	}
	if teaErr != nil {
		err = teaErr
	}
	return resultModel, err
}
