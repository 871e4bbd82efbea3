package adapter

import (
	"context"
	"io"
)

// PhotoStorage persists job photos and returns a URL clients can fetch.
type PhotoStorage interface {
	Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error)
}
