// Package file is the local-filesystem datasource.
package file

import (
	"context"
	"io"
	"os"
)

// Local reads from a path on the local filesystem.
type Local struct {
	Path string
}

func NewLocal(path string) *Local { return &Local{Path: path} }

// Open opens the file for streaming reads. The caller owns the stream
// and must close it.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(l.Path)
}
