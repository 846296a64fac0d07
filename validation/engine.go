package validation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/camden-git/dancereg/media"
	"github.com/go-playground/validator/v10"
)

// UniqueChecker answers uniqueness questions for the unique validator. excludeID is
// zero when no record should be ignored.
type UniqueChecker interface {
	IsTaken(ctx context.Context, attribute, value string, excludeID uint) (bool, error)
}

// TranslateFunc resolves a message in a translation category.
type TranslateFunc func(category, message string) string

// Target is the record under validation, seen as raw attribute values.
type Target struct {
	// ID of the stored record, zero for new records.
	ID uint
	// Values holds raw attribute values keyed by attribute name.
	Values map[string]string
	// Files holds freshly uploaded files keyed by attribute name.
	Files map[string]*media.Upload
}

func (t Target) value(attribute string) string {
	return t.Values[attribute]
}

func (t Target) file(attribute string) *media.Upload {
	if t.Files == nil {
		return nil
	}
	return t.Files[attribute]
}

// Options tune the engine.
type Options struct {
	Unique    UniqueChecker
	Translate TranslateFunc
	// MaxFileSize is the default limit of the filesize validator, in bytes.
	MaxFileSize int64
}

// Engine runs rules. It is safe for concurrent use.
type Engine struct {
	validate    *validator.Validate
	unique      UniqueChecker
	translate   TranslateFunc
	maxFileSize int64

	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

func NewEngine(opts Options) *Engine {
	tr := opts.Translate
	if tr == nil {
		tr = func(_, message string) string { return message }
	}
	return &Engine{
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		unique:      opts.Unique,
		translate:   tr,
		maxFileSize: opts.MaxFileSize,
		patterns:    make(map[string]*regexp.Regexp),
	}
}

// Request bundles everything one validation pass needs.
type Request struct {
	Rules    []Rule
	Scenario Scenario
	// Active lists the attributes safe in Scenario. Attributes outside it are not checked.
	Active []string
	Target Target
	// Labels maps attribute names to display labels used in messages.
	Labels map[string]string
	// Only restricts validation further, e.g. when a single field is being checked.
	Only []string
	// Translate overrides the engine translator for this pass.
	Translate TranslateFunc
}

// Validate runs every applicable rule and returns the collected messages. The error
// return is reserved for infrastructure failures such as a broken uniqueness lookup.
func (e *Engine) Validate(ctx context.Context, req Request) (*Errors, error) {
	active := make(map[string]struct{}, len(req.Active))
	for _, a := range req.Active {
		active[a] = struct{}{}
	}
	var only map[string]struct{}
	if len(req.Only) > 0 {
		only = make(map[string]struct{}, len(req.Only))
		for _, a := range req.Only {
			only[a] = struct{}{}
		}
	}

	tr := e.translate
	if req.Translate != nil {
		tr = req.Translate
	}

	errs := NewErrors()
	for _, rule := range req.Rules {
		if !rule.AppliesTo(req.Scenario) {
			continue
		}
		check, ok := validators[rule.Validator]
		if !ok {
			return nil, fmt.Errorf("unknown validator %q in rule %s", rule.Validator, rule)
		}
		for _, attr := range rule.Attributes {
			if _, ok := active[attr]; !ok {
				continue
			}
			if only != nil {
				if _, ok := only[attr]; !ok {
					continue
				}
			}
			vc := &checkContext{
				ctx:       ctx,
				engine:    e,
				rule:      rule,
				attribute: attr,
				target:    req.Target,
				labels:    req.Labels,
			}
			if rule.skipOnEmpty() && vc.isEmpty() {
				continue
			}
			failure, err := check(vc)
			if err != nil {
				return nil, fmt.Errorf("rule %s on '%s': %w", rule, attr, err)
			}
			if failure == nil {
				continue
			}
			errs.Add(attr, message(tr, rule, failure, label(req.Labels, attr)))
		}
	}
	return errs, nil
}

func message(tr TranslateFunc, rule Rule, f *failure, attrLabel string) string {
	tmpl := f.template
	if rule.Message != "" {
		tmpl = rule.Message
	}
	tmpl = tr("validation", tmpl)
	pairs := []string{"{attribute}", attrLabel}
	for k, v := range f.params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func (e *Engine) pattern(expr string, ignoreCase bool) (*regexp.Regexp, error) {
	key := expr
	if ignoreCase {
		key = "(?i)" + expr
	}
	e.mu.RLock()
	re, ok := e.patterns[key]
	e.mu.RUnlock()
	if ok {
		return re, nil
	}
	re, err := regexp.Compile(key)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	e.mu.Lock()
	e.patterns[key] = re
	e.mu.Unlock()
	return re, nil
}

func label(labels map[string]string, attribute string) string {
	if l, ok := labels[attribute]; ok && l != "" {
		return l
	}
	return Humanize(attribute)
}

// Humanize turns "partner_firstname" into "Partner Firstname".
func Humanize(attribute string) string {
	words := strings.FieldsFunc(attribute, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
