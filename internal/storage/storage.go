// Package storage keeps uploaded files (post pictures) outside the database.
// A stored file is identified by the public reference returned from Save.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrForeignRef = errors.New("storage: reference does not belong to this store")

type Store interface {
	Save(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// ObjectName builds a collision-free object name keeping the original extension.
func ObjectName(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join(prefix, uuid.NewString()+ext)
}

func trimRef(ref, publicURL string) (string, error) {
	base := strings.TrimRight(publicURL, "/") + "/"
	if !strings.HasPrefix(ref, base) {
		return "", ErrForeignRef
	}
	name := strings.TrimPrefix(ref, base)
	if name == "" || strings.Contains(name, "..") {
		return "", ErrForeignRef
	}
	return name, nil
}
