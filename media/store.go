package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/camden-git/dancereg/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidPath is returned for relative paths that escape the storage root.
var ErrInvalidPath = errors.New("invalid asset path")

// Store defines the interface for saving, retrieving, and deleting media assets
type Store interface {
	// Save stores data under the asset type's directory and returns the relative path used.
	// An empty filenameHint generates a random name.
	Save(assetType AssetType, relativeDirHint string, filenameHint string, data io.Reader) (string, error)
	Get(relativePath string) (io.ReadCloser, os.FileInfo, error)
	// Delete removes an asset. Missing assets are not an error.
	Delete(relativePath string) error
	GetFullPath(relativePath string) (string, error)
	EnsureDir(assetType AssetType) (string, error)
}

// LocalStorage implements the Store interface using the local filesystem
type LocalStorage struct {
	basePath        string               // absolute path to the MEDIA_STORAGE_PATH
	resolvedPathMap map[AssetType]string // maps AssetType to full absolute path
	log             *zap.Logger
}

// NewLocalStorage creates a new local filesystem store. Every asset type used later
// must be listed in subDirs.
func NewLocalStorage(basePath string, subDirs map[AssetType]string) (*LocalStorage, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absBasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory '%s': %w", absBasePath, err)
	}

	resolvedPaths := make(map[AssetType]string, len(subDirs))
	for assetType, subDir := range subDirs {
		fullPath := filepath.Join(absBasePath, subDir)
		if !within(absBasePath, fullPath) || fullPath == absBasePath {
			return nil, fmt.Errorf("invalid subdirectory configuration: '%s' resolves outside base path '%s'", subDir, absBasePath)
		}
		resolvedPaths[assetType] = fullPath
	}

	logger := logging.Named("media.store")
	logger.Info("initialized local storage", zap.String("path", absBasePath))
	return &LocalStorage{
		basePath:        absBasePath,
		resolvedPathMap: resolvedPaths,
		log:             logger,
	}, nil
}

func within(base, path string) bool {
	clean := filepath.Clean(path)
	return clean == base || strings.HasPrefix(clean, base+string(filepath.Separator))
}

func (ls *LocalStorage) getAssetTypeDir(assetType AssetType) (string, error) {
	dirPath, ok := ls.resolvedPathMap[assetType]
	if !ok {
		return "", fmt.Errorf("asset type '%s' is not configured", assetType)
	}
	return dirPath, nil
}

// EnsureDir creates the directory for the asset type if it doesn't exist
func (ls *LocalStorage) EnsureDir(assetType AssetType) (string, error) {
	dirPath, err := ls.getAssetTypeDir(assetType)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to ensure directory '%s': %w", dirPath, err)
	}
	return dirPath, nil
}

func (ls *LocalStorage) Save(assetType AssetType, relativeDirHint string, filenameHint string, data io.Reader) (string, error) {
	baseAssetDir, err := ls.EnsureDir(assetType)
	if err != nil {
		return "", err
	}

	targetDir := baseAssetDir
	if relativeDirHint != "" {
		targetDir = filepath.Join(baseAssetDir, relativeDirHint)
		if !within(baseAssetDir, targetDir) {
			return "", fmt.Errorf("%w: relative directory hint '%s'", ErrInvalidPath, relativeDirHint)
		}
		if err := os.MkdirAll(targetDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create sub-directory '%s': %w", targetDir, err)
		}
	}

	finalFilename := filepath.Base(filenameHint)
	if filenameHint == "" {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", fmt.Errorf("failed to generate filename: %w", err)
		}
		finalFilename = id.String()
	}
	fullSavePath := filepath.Join(targetDir, finalFilename)

	outFile, err := os.Create(fullSavePath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file '%s': %w", fullSavePath, err)
	}
	defer outFile.Close()

	if _, err = io.Copy(outFile, data); err != nil {
		outFile.Close()
		os.Remove(fullSavePath)
		return "", fmt.Errorf("failed to write data to '%s': %w", fullSavePath, err)
	}

	relativePath, err := filepath.Rel(ls.basePath, fullSavePath)
	if err != nil {
		return "", fmt.Errorf("internal error calculating relative path: %w", err)
	}

	ls.log.Debug("saved asset", zap.String("path", fullSavePath))
	return filepath.ToSlash(relativePath), nil
}

func (ls *LocalStorage) Get(relativePath string) (io.ReadCloser, os.FileInfo, error) {
	fullPath, err := ls.GetFullPath(relativePath)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("asset not found at '%s': %w", relativePath, err)
		}
		return nil, nil, fmt.Errorf("failed to open asset '%s': %w", relativePath, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to stat asset '%s': %w", relativePath, err)
	}
	if info.IsDir() {
		file.Close()
		return nil, nil, fmt.Errorf("asset not found at '%s': %w", relativePath, os.ErrNotExist)
	}

	return file, info, nil
}

func (ls *LocalStorage) Delete(relativePath string) error {
	if relativePath == "" {
		return nil
	}
	fullPath, err := ls.GetFullPath(relativePath)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete asset '%s': %w", relativePath, err)
	}
	if err == nil {
		ls.log.Debug("deleted asset", zap.String("path", fullPath))
	}
	return nil
}

// GetFullPath calculates the absolute path and rejects paths outside the storage root
func (ls *LocalStorage) GetFullPath(relativePath string) (string, error) {
	if filepath.IsAbs(relativePath) {
		return "", fmt.Errorf("%w: '%s' is absolute", ErrInvalidPath, relativePath)
	}
	fullPath := filepath.Join(ls.basePath, filepath.Clean(relativePath))

	absFullPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", relativePath, err)
	}

	if !within(ls.basePath, absFullPath) || absFullPath == ls.basePath {
		return "", fmt.Errorf("%w: access denied for '%s'", ErrInvalidPath, relativePath)
	}

	return absFullPath, nil
}
