package photo

import (
	"context"
	"fmt"
	"os"
)

// Source yields the encoded bytes of one selected image
type Source interface {
	// Name identifies the source in logs
	Name() string
	// Load returns the image bytes
	Load(ctx context.Context) ([]byte, error)
}

// FileSource loads an image from the local filesystem
type FileSource struct {
	Path string
}

// Name returns the file path
func (f FileSource) Name() string {
	return f.Path
}

// Load reads the whole file
func (f FileSource) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// BytesSource is an image that was already transferred into memory.
// Err records a failed transfer.
type BytesSource struct {
	Filename string
	Data     []byte
	Err      error
}

// Name returns the original filename
func (b BytesSource) Name() string {
	return b.Filename
}

// Load returns the buffered bytes or the transfer error
func (b BytesSource) Load(ctx context.Context) ([]byte, error) {
	if b.Err != nil {
		return nil, b.Err
	}
	return b.Data, nil
}
