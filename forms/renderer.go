// Package forms renders the HTML partials for the account and person edit forms.
package forms

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/camden-git/dancereg/i18n"
	"github.com/camden-git/dancereg/metadata"
	"github.com/camden-git/dancereg/models"
	"github.com/camden-git/dancereg/validation"
	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.tpl
var templateFS embed.FS

// Field is the view model of one form control.
type Field struct {
	Name        string
	ID          string
	Type        string // text, email, tel, password, hidden, select or file
	Label       string
	Value       string
	Placeholder string
	Accept      string
	Preview     string // pre-rendered HTML shown above a file input
	Options     []Option
	Multiple    bool
	Select2     bool
	Required    bool
	Errors      []string
}

// Renderer renders the form partials from the embedded templates.
type Renderer struct {
	form      *pongo2.Template
	thumbnail *pongo2.Template

	assetPrefix   string
	thumbnailSize int
}

// NewRenderer parses the templates. assetPrefix is the URL prefix stored asset paths
// are served under, e.g. "/api".
func NewRenderer(assetPrefix string, thumbnailSize int) (*Renderer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open form templates: %w", err)
	}
	set := pongo2.NewSet("forms", pongo2.NewFSLoader(sub))

	form, err := set.FromFile("form.tpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse form template: %w", err)
	}
	thumb, err := set.FromFile("thumbnail.tpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse thumbnail template: %w", err)
	}
	return &Renderer{
		form:          form,
		thumbnail:     thumb,
		assetPrefix:   strings.TrimSuffix(assetPrefix, "/"),
		thumbnailSize: thumbnailSize,
	}, nil
}

func (r *Renderer) renderFields(class string, scenario validation.Scenario, fields []Field) (string, error) {
	out, err := r.form.Execute(pongo2.Context{
		"class":    class,
		"scenario": string(scenario),
		"fields":   fields,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", class, err)
	}
	return out, nil
}

// AssetURL maps a stored relative asset path to its public URL.
func (r *Renderer) AssetURL(rel string) string {
	if rel == "" {
		return ""
	}
	return r.assetPrefix + "/" + strings.TrimPrefix(rel, "/")
}

// Thumbnail renders the <img> tag of a person's profile thumbnail, falling back to the
// original while the thumbnail is being generated. It returns "" without an image.
func (r *Renderer) Thumbnail(ctx context.Context, p *models.Person) (string, error) {
	if p == nil || !p.HasProfileImage() {
		return "", nil
	}
	src := *p.ProfileImage
	if p.ProfileThumbnail != nil && *p.ProfileThumbnail != "" {
		src = *p.ProfileThumbnail
	}
	out, err := r.thumbnail.Execute(pongo2.Context{
		"src":  r.AssetURL(src),
		"alt":  p.DisplayName(i18n.FromContext(ctx)),
		"size": r.thumbnailSize,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render thumbnail: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func fieldID(model, attribute string) string {
	return strings.ToLower(model) + "-" + strings.ToLower(attribute)
}

// requiredIn reports whether a required rule covers attribute in scenario.
func requiredIn(d *metadata.Descriptor, scenario validation.Scenario, attribute string) bool {
	for _, rule := range d.Rules() {
		if rule.Validator != validation.Required || !rule.AppliesTo(scenario) {
			continue
		}
		for _, a := range rule.Attributes {
			if a == attribute {
				return true
			}
		}
	}
	return false
}
