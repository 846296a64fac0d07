// Package i18n translates category-scoped messages. A message that has no entry in the
// catalog is returned unchanged, so English source strings double as keys.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localesFS embed.FS

// Category groups messages the way the application labels them, e.g. "users".
type Category = string

// Catalog holds every loaded locale.
type Catalog struct {
	builder   *catalog.Builder
	known     map[language.Tag]map[string]struct{}
	supported []language.Tag
	matcher   language.Matcher
	fallback  language.Tag
}

// Translator is a Catalog bound to one language.
type Translator struct {
	catalog *Catalog
	tag     language.Tag
	printer *message.Printer
}

func key(category, msg string) string {
	return category + "\x1f" + msg
}

// LoadDefault reads the locales embedded in the binary.
func LoadDefault(fallback string) (*Catalog, error) {
	return Load(localesFS, "locales", fallback)
}

// Load reads every <locale>.yaml file in dir. Each file maps category -> message -> translation.
func Load(fsys fs.FS, dir, fallback string) (*Catalog, error) {
	fallbackTag, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("invalid fallback locale '%s': %w", fallback, err)
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read locales directory '%s': %w", dir, err)
	}

	c := &Catalog{
		builder:  catalog.NewBuilder(catalog.Fallback(fallbackTag)),
		known:    make(map[language.Tag]map[string]struct{}),
		fallback: fallbackTag,
	}

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		locale := strings.TrimSuffix(entry.Name(), ".yaml")
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("invalid locale file name '%s': %w", entry.Name(), err)
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read locale '%s': %w", locale, err)
		}
		var doc map[string]map[string]string
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse locale '%s': %w", locale, err)
		}
		if err := c.add(tag, doc); err != nil {
			return nil, err
		}
	}

	if _, ok := c.known[fallbackTag]; !ok {
		return nil, fmt.Errorf("fallback locale '%s' has no catalog file", fallback)
	}

	// keep the fallback first so the matcher prefers it on ties
	sort.SliceStable(c.supported, func(i, j int) bool {
		return c.supported[i] == fallbackTag && c.supported[j] != fallbackTag
	})
	c.matcher = language.NewMatcher(c.supported)
	return c, nil
}

func (c *Catalog) add(tag language.Tag, doc map[string]map[string]string) error {
	known, ok := c.known[tag]
	if !ok {
		known = make(map[string]struct{})
		c.known[tag] = known
		c.supported = append(c.supported, tag)
	}
	for category, messages := range doc {
		for msg, translation := range messages {
			k := key(category, msg)
			// translations are literal text, escape printf verbs
			if err := c.builder.SetString(tag, k, strings.ReplaceAll(translation, "%", "%%")); err != nil {
				return fmt.Errorf("failed to add message %q for %s: %w", msg, tag, err)
			}
			known[k] = struct{}{}
		}
	}
	return nil
}

// Languages lists the loaded locales, fallback first.
func (c *Catalog) Languages() []string {
	out := make([]string, 0, len(c.supported))
	for _, t := range c.supported {
		out = append(out, t.String())
	}
	return out
}

// For returns a translator for the best match of the given preferences, which may be
// locale names or a raw Accept-Language header.
func (c *Catalog) For(preferences ...string) *Translator {
	var wanted []language.Tag
	for _, p := range preferences {
		if strings.TrimSpace(p) == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		wanted = append(wanted, tags...)
	}
	tag := c.fallback
	if len(wanted) > 0 {
		_, idx, conf := c.matcher.Match(wanted...)
		if conf != language.No {
			tag = c.supported[idx]
		}
	}
	return &Translator{
		catalog: c,
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(c.builder)),
	}
}

// Locale returns the language the translator resolved to.
func (t *Translator) Locale() string {
	return t.tag.String()
}

// T translates msg within category.
func (t *Translator) T(category Category, msg string) string {
	if t == nil {
		return msg
	}
	k := key(category, msg)
	if !t.catalog.has(t.tag, k) && !t.catalog.has(t.catalog.fallback, k) {
		return msg
	}
	return t.printer.Sprintf(k)
}

func (c *Catalog) has(tag language.Tag, k string) bool {
	_, ok := c.known[tag][k]
	return ok
}
