package validation

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"

	// image formats accepted by the image validator
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	// embedded zoneinfo for the timezone validator
	_ "time/tzdata"
)

type failure struct {
	template string
	params   map[string]string
}

func fail(template string, kv ...string) *failure {
	f := &failure{template: template, params: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		f.params[kv[i]] = kv[i+1]
	}
	return f
}

type checkContext struct {
	ctx       context.Context
	engine    *Engine
	rule      Rule
	attribute string
	target    Target
	labels    map[string]string
}

func (c *checkContext) value() string {
	return c.target.value(c.attribute)
}

func (c *checkContext) isEmpty() bool {
	if isFileValidator(c.rule.Validator) {
		return c.target.file(c.attribute).Empty()
	}
	return strings.TrimSpace(c.value()) == "" && c.target.file(c.attribute).Empty()
}

func isFileValidator(name string) bool {
	return name == File || name == FileSize || name == Image
}

type checkFunc func(c *checkContext) (*failure, error)

var validators map[string]checkFunc

func init() {
	validators = map[string]checkFunc{
		Required: checkRequired,
		Match:    checkMatch,
		String:   checkString,
		Number:   checkNumber,
		Boolean:  checkBoolean,
		Email:    checkEmail,
		Unique:   checkUnique,
		File:     checkFile,
		FileSize: checkFileSize,
		Image:    checkImage,
		In:       checkIn,
		Compare:  checkCompare,
		Timezone: checkTimezone,
		Safe:     func(*checkContext) (*failure, error) { return nil, nil },
	}
}

func checkRequired(c *checkContext) (*failure, error) {
	if strings.TrimSpace(c.value()) == "" && c.target.file(c.attribute).Empty() {
		return fail("{attribute} cannot be blank."), nil
	}
	return nil, nil
}

func checkMatch(c *checkContext) (*failure, error) {
	expr := c.rule.stringParam("pattern")
	if expr == "" {
		return nil, fmt.Errorf("match rule requires a pattern")
	}
	re, err := c.engine.pattern(expr, c.rule.boolParam("ignoreCase"))
	if err != nil {
		return nil, err
	}
	matched := re.MatchString(c.value())
	if c.rule.boolParam("not") {
		matched = !matched
	}
	if !matched {
		return fail("{attribute} is invalid."), nil
	}
	return nil, nil
}

func checkString(c *checkContext) (*failure, error) {
	v := c.value()
	if max, ok := c.rule.intParam("max"); ok {
		if err := c.engine.validate.Var(v, fmt.Sprintf("max=%d", max)); err != nil {
			return fail("{attribute} should contain at most {max} characters.", "max", strconv.FormatInt(max, 10)), nil
		}
	}
	// maxBytes limits the encoded length, e.g. for values handed to bcrypt
	if maxBytes, ok := c.rule.intParam("maxBytes"); ok && int64(len(v)) > maxBytes {
		return fail("{attribute} should not exceed {max} bytes.", "max", strconv.FormatInt(maxBytes, 10)), nil
	}
	if min, ok := c.rule.intParam("min"); ok {
		if err := c.engine.validate.Var(v, fmt.Sprintf("min=%d", min)); err != nil {
			return fail("{attribute} should contain at least {min} characters.", "min", strconv.FormatInt(min, 10)), nil
		}
	}
	return nil, nil
}

func checkNumber(c *checkContext) (*failure, error) {
	if err := c.engine.validate.Var(strings.TrimSpace(c.value()), "numeric"); err != nil {
		return fail("{attribute} must be a number."), nil
	}
	return nil, nil
}

// ParseBool accepts the values a boolean rule lets through.
func ParseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true":
		return true, true
	case "0", "false":
		return false, true
	}
	return false, false
}

func checkBoolean(c *checkContext) (*failure, error) {
	if _, ok := ParseBool(c.value()); !ok {
		return fail(`{attribute} must be either "{true}" or "{false}".`, "true", "1", "false", "0"), nil
	}
	return nil, nil
}

func checkEmail(c *checkContext) (*failure, error) {
	if err := c.engine.validate.Var(strings.TrimSpace(c.value()), "required,email"); err != nil {
		return fail("{attribute} is not a valid email address."), nil
	}
	return nil, nil
}

func checkUnique(c *checkContext) (*failure, error) {
	if c.engine.unique == nil {
		return nil, fmt.Errorf("unique rule requires a uniqueness checker")
	}
	var exclude uint
	if c.rule.stringParam("filter") == FilterExcludeSelf {
		exclude = c.target.ID
	}
	target := c.rule.stringParam("targetAttribute")
	if target == "" {
		target = c.attribute
	}
	v := c.value()
	taken, err := c.engine.unique.IsTaken(c.ctx, target, v, exclude)
	if err != nil {
		return nil, err
	}
	if taken {
		return fail(`{attribute} "{value}" has already been taken.`, "value", v), nil
	}
	return nil, nil
}

func checkFile(c *checkContext) (*failure, error) {
	up := c.target.file(c.attribute)
	if up.Empty() {
		return fail("Please upload a file."), nil
	}
	if exts := c.rule.listParam("extensions"); len(exts) > 0 && !containsFold(exts, up.Ext()) {
		return fail("Only files with these extensions are allowed: {extensions}.", "extensions", strings.Join(exts, ", ")), nil
	}
	return nil, nil
}

func checkFileSize(c *checkContext) (*failure, error) {
	up := c.target.file(c.attribute)
	limit, ok := c.rule.intParam("max")
	if !ok {
		limit = c.engine.maxFileSize
	}
	if limit > 0 && up.Size > limit {
		return fail(`The file "{file}" is too big. Its size cannot exceed {limit}.`,
			"file", up.Filename, "limit", FormatBytes(limit)), nil
	}
	return nil, nil
}

func checkImage(c *checkContext) (*failure, error) {
	up := c.target.file(c.attribute)
	if exts := c.rule.listParam("extensions"); len(exts) > 0 && !containsFold(exts, up.Ext()) {
		return fail("Only files with these extensions are allowed: {extensions}.", "extensions", strings.Join(exts, ", ")), nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(up.Data))
	if err != nil {
		return fail(`The file "{file}" is not an image.`, "file", up.Filename), nil
	}
	limits := []struct {
		param    string
		got      int
		tooSmall bool
		template string
	}{
		{"minWidth", cfg.Width, true, `The image "{file}" is too small. The width cannot be smaller than {limit} pixels.`},
		{"minHeight", cfg.Height, true, `The image "{file}" is too small. The height cannot be smaller than {limit} pixels.`},
		{"maxWidth", cfg.Width, false, `The image "{file}" is too large. The width cannot be larger than {limit} pixels.`},
		{"maxHeight", cfg.Height, false, `The image "{file}" is too large. The height cannot be larger than {limit} pixels.`},
	}
	for _, l := range limits {
		limit, ok := c.rule.intParam(l.param)
		if !ok || limit <= 0 {
			continue
		}
		if (l.tooSmall && int64(l.got) < limit) || (!l.tooSmall && int64(l.got) > limit) {
			return fail(l.template, "file", up.Filename, "limit", strconv.FormatInt(limit, 10)), nil
		}
	}
	return nil, nil
}

func checkIn(c *checkContext) (*failure, error) {
	allowed := c.rule.listParam("range")
	if len(allowed) == 0 {
		return nil, fmt.Errorf("in rule requires a range")
	}
	v := strings.TrimSpace(c.value())
	for _, a := range allowed {
		if a == v {
			return nil, nil
		}
	}
	return fail("{attribute} is invalid."), nil
}

func checkCompare(c *checkContext) (*failure, error) {
	other := c.rule.stringParam("compareAttribute")
	if other == "" {
		return nil, fmt.Errorf("compare rule requires compareAttribute")
	}
	if c.value() != c.target.value(other) {
		return fail(`{attribute} must be equal to "{compareValueOrAttribute}".`, "compareValueOrAttribute", label(c.labels, other)), nil
	}
	return nil, nil
}

func checkTimezone(c *checkContext) (*failure, error) {
	if err := c.engine.validate.Var(strings.TrimSpace(c.value()), "timezone"); err != nil {
		return fail("{attribute} is not a valid time zone."), nil
	}
	return nil, nil
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimPrefix(item, "."), v) {
			return true
		}
	}
	return false
}

// FormatBytes renders n with a binary unit, e.g. "2 MiB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	value := float64(n) / float64(div)
	suffix := []string{"KiB", "MiB", "GiB", "TiB"}[exp]
	if value == float64(int64(value)) {
		return fmt.Sprintf("%d %s", int64(value), suffix)
	}
	return fmt.Sprintf("%.1f %s", value, suffix)
}
