package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/camden-git/dancereg/logging"
	"github.com/camden-git/dancereg/media"
	"go.uber.org/zap"
)

// AssetServer creates a handler serving the files of one asset subdirectory of store.
// The route prefix must match the subdirectory, stored relative paths then map
// directly to URLs:
//
//	r.Get("/profile_images/*", AssetServer(store, "profile_images"))
func AssetServer(store *media.LocalStorage, subDir string) http.HandlerFunc {
	log := logging.Named("assets").With(zap.String("subdir", subDir))
	log.Info("serving assets")

	return func(w http.ResponseWriter, r *http.Request) {
		// e.g., for route /api/thumbnails/* and request /api/thumbnails/a.jpg, extract "a.jpg"
		_, relativePath, found := strings.Cut(r.URL.Path, "/"+subDir+"/")
		if !found || relativePath == "" || strings.Contains(relativePath, "..") {
			WriteAPIError(w, http.StatusBadRequest, codeBadRequest, "invalid asset path")
			return
		}

		fullPath, err := store.GetFullPath(path.Join(subDir, relativePath))
		if err != nil {
			log.Warn("asset access outside storage rejected", zap.String("path", r.URL.Path), zap.Error(err))
			WriteAPIError(w, http.StatusForbidden, "FORBIDDEN", "forbidden")
			return
		}

		info, err := os.Stat(fullPath)
		if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
			http.NotFound(w, r)
			return
		} else if err != nil {
			log.Error("failed to stat asset", zap.String("path", fullPath), zap.Error(err))
			WriteAPIError(w, http.StatusInternalServerError, codeInternal, "internal server error")
			return
		}

		cacheDuration := 24 * time.Hour
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cacheDuration.Seconds())))
		w.Header().Set("Expires", time.Now().Add(cacheDuration).Format(http.TimeFormat))

		http.ServeFile(w, r, fullPath)
	}
}
