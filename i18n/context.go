package i18n

import (
	"context"
	"net/http"
)

type translatorKey struct{}

// WithTranslator stores tr in ctx.
func WithTranslator(ctx context.Context, tr *Translator) context.Context {
	return context.WithValue(ctx, translatorKey{}, tr)
}

// FromContext returns the request translator. The nil result is usable and returns
// messages untranslated.
func FromContext(ctx context.Context) *Translator {
	tr, _ := ctx.Value(translatorKey{}).(*Translator)
	return tr
}

// Middleware picks the translator from the "lang" query parameter, then Accept-Language.
func Middleware(c *Catalog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tr := c.For(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", tr.Locale())
			next.ServeHTTP(w, r.WithContext(WithTranslator(r.Context(), tr)))
		})
	}
}
