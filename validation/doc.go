// Package validation interprets declarative attribute rules against a set of raw
// attribute values for a named scenario and collects per-attribute error messages.
//
// Rules are plain data so they can be declared in Go or loaded from YAML. Each rule names
// the attributes it covers, a validator, optional parameters and an optional scenario
// list. Only attributes active in the scenario are checked, and every validator except
// required skips empty values unless the rule says otherwise.
package validation
