package services

import (
	"errors"
	"fmt"

	"github.com/camden-git/dancereg/validation"
	goerrors "github.com/goliatone/go-errors"
	"gorm.io/gorm"
)

// Text codes carried by the rich errors this package returns.
const (
	TextCodeNotFound        = "NOT_FOUND"
	TextCodeInvalidScenario = "INVALID_SCENARIO"
	TextCodeConflict        = "CONFLICT"
	TextCodeDeleteAborted   = "DELETE_ABORTED"
	TextCodeInvalidInput    = "INVALID_INPUT"
)

// ErrDeleteAborted is returned when a before-delete hook vetoes a delete.
var ErrDeleteAborted = goerrors.New("delete aborted by a before-delete hook", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeDeleteAborted)

func notFound(what string, id uint) error {
	return goerrors.New(fmt.Sprintf("%s %d not found", what, id), goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound).
		WithTextCode(TextCodeNotFound)
}

func invalidScenario(s validation.Scenario, op string) error {
	return goerrors.New(fmt.Sprintf("scenario %q is not valid for %s", s, op), goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeInvalidScenario)
}

func invalidInput(msg string) error {
	return goerrors.New(msg, goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeInvalidInput)
}

func internal(err error, msg string) error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).WithCode(goerrors.CodeInternal)
}

// storeError maps repository errors. Missing rows become not found, unique index
// violations that slipped past validation become conflicts.
func storeError(err error, what string, id uint, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(what, id)
	case isUniqueViolation(err):
		return goerrors.Wrap(err, goerrors.CategoryValidation, msg).
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodeConflict)
	}
	return internal(err, msg)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && containsFold(err.Error(), "UNIQUE constraint failed")
}
