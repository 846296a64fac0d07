package services

import (
	"strings"

	"github.com/camden-git/dancereg/media"
	"github.com/camden-git/dancereg/metadata"
	"github.com/camden-git/dancereg/validation"
)

// Input carries raw submitted attribute values. Only attributes safe in the
// scenario are assigned, the rest are ignored.
type Input struct {
	Values map[string]string
	Files  map[string]*media.Upload
}

// safeValues returns the submitted values that are safe in active, stripped of markup.
// Passwords are kept verbatim.
func (in Input) safeValues(active []string) map[string]string {
	allowed := make(map[string]struct{}, len(active))
	for _, a := range active {
		allowed[a] = struct{}{}
	}
	out := make(map[string]string)
	for k, v := range in.Values {
		if _, ok := allowed[k]; ok {
			out[k] = v
		}
	}
	return validation.StripAll(out, metadata.AttrPassword, metadata.AttrConfirmPassword)
}

func (in Input) file(attribute string, active []string) *media.Upload {
	for _, a := range active {
		if a == attribute {
			return in.Files[attribute]
		}
	}
	return nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func contains(list []validation.Scenario, s validation.Scenario) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
