package handlers

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/camden-git/dancereg/media"
	"github.com/camden-git/dancereg/services"
	"github.com/camden-git/dancereg/validation"
	"github.com/go-chi/chi/v5"
)

// multipart bodies above this are spooled to disk by net/http
const multipartMemory = 8 << 20

// readInput collects the submitted attributes. JSON objects, urlencoded forms and
// multipart forms are accepted. Repeated form keys and JSON arrays are joined with ",",
// a trailing "[]" on a form key is dropped. Files are read only when maxUpload is positive.
func readInput(r *http.Request, maxUpload int64) (services.Input, error) {
	in := services.Input{Values: map[string]string{}}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch ct {
	case "application/json":
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return in, fmt.Errorf("invalid JSON body: %w", err)
		}
		for k, v := range body {
			in.Values[k] = stringify(v)
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return in, fmt.Errorf("invalid multipart body: %w", err)
		}
		collectForm(in.Values, r.MultipartForm.Value)
		if maxUpload <= 0 {
			break
		}
		in.Files = map[string]*media.Upload{}
		for name, headers := range r.MultipartForm.File {
			if len(headers) == 0 {
				continue
			}
			up, err := media.UploadFromMultipart(headers[0], maxUpload)
			if err != nil {
				return in, err
			}
			in.Files[strings.TrimSuffix(name, "[]")] = up
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return in, fmt.Errorf("invalid form body: %w", err)
		}
		collectForm(in.Values, r.PostForm)
	case "":
		// no body
	default:
		return in, fmt.Errorf("unsupported content type %q", ct)
	}
	return in, nil
}

func collectForm(dst map[string]string, src map[string][]string) {
	for k, vs := range src {
		dst[strings.TrimSuffix(k, "[]")] = strings.Join(vs, ",")
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, stringify(e))
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}

func idParam(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(id), nil
}

func parseIDs(raw string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func scenarioParam(r *http.Request, fallback validation.Scenario) validation.Scenario {
	return validation.ParseScenario(r.URL.Query().Get("scenario"), fallback)
}
