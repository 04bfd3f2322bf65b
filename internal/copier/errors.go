package copier

import (
	"errors"
	"fmt"
)

const (
	invalidInputErrorTemplateConstant = "%s: %s"
	stepErrorTemplateConstant         = "%s failed: %v"
	copyFailedErrorTemplateConstant   = "failed to copy repository: %w"
)

// InvalidInputError describes copy request validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// StepError identifies the pipeline step that aborted a copy.
type StepError struct {
	Step  string
	Cause error
}

// Error names the step and its cause.
func (stepError StepError) Error() string {
	return fmt.Sprintf(stepErrorTemplateConstant, stepError.Step, stepError.Cause)
}

// Unwrap exposes the underlying cause.
func (stepError StepError) Unwrap() error {
	return stepError.Cause
}

// IsInvalidInput reports whether err stems from request validation.
func IsInvalidInput(err error) bool {
	var inputError InvalidInputError
	return errors.As(err, &inputError)
}

func newCopyFailure(stepName string, cause error) error {
	return fmt.Errorf(copyFailedErrorTemplateConstant, StepError{Step: stepName, Cause: cause})
}
