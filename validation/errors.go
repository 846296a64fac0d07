package validation

import (
	"errors"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// TextCodeValidationFailed tags rich errors produced from a failed validation.
const TextCodeValidationFailed = "VALIDATION_FAILED"

// Errors collects messages per attribute in the order they were added.
type Errors struct {
	fields map[string][]string
	order  []string
}

func NewErrors() *Errors {
	return &Errors{fields: make(map[string][]string)}
}

func (e *Errors) Add(attribute, message string) {
	if _, ok := e.fields[attribute]; !ok {
		e.order = append(e.order, attribute)
	}
	e.fields[attribute] = append(e.fields[attribute], message)
}

func (e *Errors) Has(attribute string) bool {
	return len(e.fields[attribute]) > 0
}

func (e *Errors) Empty() bool {
	return e == nil || len(e.order) == 0
}

// First returns the first message recorded for attribute.
func (e *Errors) First(attribute string) string {
	if msgs := e.fields[attribute]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns a copy of the attribute to messages map.
func (e *Errors) Fields() map[string][]string {
	out := make(map[string][]string, len(e.fields))
	for k, v := range e.fields {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Attributes returns the failing attributes in the order they first failed.
func (e *Errors) Attributes() []string {
	return append([]string(nil), e.order...)
}

func (e *Errors) Error() string {
	if e.Empty() {
		return "validation passed"
	}
	parts := make([]string, 0, len(e.order))
	for _, attr := range e.order {
		parts = append(parts, strings.Join(e.fields[attr], " "))
	}
	return strings.Join(parts, " ")
}

// Rich wraps the collected messages in a validation category error carrying the
// fields as metadata.
func (e *Errors) Rich() *goerrors.Error {
	fields := e.Fields()
	meta := make(map[string]any, len(fields))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		meta[k] = fields[k]
	}
	rich := goerrors.Wrap(e, goerrors.CategoryValidation, "validation failed").
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(TextCodeValidationFailed)
	return rich.WithMetadata(map[string]any{"fields": meta})
}

// FieldsOf extracts the per-attribute messages from err, if it carries any.
func FieldsOf(err error) (map[string][]string, bool) {
	var verrs *Errors
	if errors.As(err, &verrs) {
		return verrs.Fields(), true
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != TextCodeValidationFailed {
		return nil, false
	}
	raw, ok := rich.Metadata["fields"].(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string][]string, len(raw))
	for attr, msgs := range raw {
		if list, ok := msgs.([]string); ok {
			out[attr] = list
		}
	}
	return out, true
}
