package validation

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicyOnce sync.Once
	stripPolicy     *bluemonday.Policy
)

// maxStripPasses bounds the sanitize/decode loop for nested entity encodings.
const maxStripPasses = 8

// StripMarkup removes every HTML element from raw and trims surrounding space.
// Entities are decoded so "O'Neil" round-trips, and the value is sanitized again
// until decoding no longer changes it, so encoded tags cannot come back as markup.
func StripMarkup(raw string) string {
	stripPolicyOnce.Do(func() {
		stripPolicy = bluemonday.StrictPolicy()
	})
	out := raw
	for i := 0; i < maxStripPasses; i++ {
		next := html.UnescapeString(stripPolicy.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	// still unstable: keep the entity-escaped form
	return strings.TrimSpace(stripPolicy.Sanitize(out))
}

// StripAll applies StripMarkup to every value except the listed attributes.
func StripAll(values map[string]string, except ...string) map[string]string {
	skip := make(map[string]struct{}, len(except))
	for _, e := range except {
		skip[e] = struct{}{}
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		if _, ok := skip[k]; ok {
			out[k] = v
			continue
		}
		out[k] = StripMarkup(v)
	}
	return out
}
