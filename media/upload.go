package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Upload is a file received from a client, held in memory until it is stored.
type Upload struct {
	Filename string
	Size     int64
	Data     []byte
}

// Ext returns the lower-case extension without the leading dot.
func (u *Upload) Ext() string {
	if u == nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(u.Filename)), ".")
}

// Reader returns a fresh reader over the uploaded bytes.
func (u *Upload) Reader() io.Reader {
	return bytes.NewReader(u.Data)
}

// Empty reports whether nothing was uploaded.
func (u *Upload) Empty() bool {
	return u == nil || u.Size == 0
}

// ReadUpload buffers r. limit caps how much is read; the reported size is exact up to
// limit+1 so size validators can still reject oversized files.
func ReadUpload(filename string, r io.Reader, limit int64) (*Upload, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("invalid upload limit %d", limit)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload '%s': %w", filename, err)
	}
	return &Upload{
		Filename: filepath.Base(filename),
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}

// UploadFromMultipart opens a multipart file header and buffers it.
func UploadFromMultipart(fh *multipart.FileHeader, limit int64) (*Upload, error) {
	if fh == nil {
		return nil, errors.New("missing multipart file header")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file '%s': %w", fh.Filename, err)
	}
	defer f.Close()
	return ReadUpload(fh.Filename, f, limit)
}

func generatedName(ext string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate filename: %w", err)
	}
	if ext == "" {
		return id.String(), nil
	}
	return id.String() + "." + ext, nil
}
