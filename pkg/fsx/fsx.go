package fsx

import (
	"context"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
)

// FileInfo represents information about a stored file.
type FileInfo struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// FileReader provides read-only operations.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context, path string) ([]FileInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// FileWriter provides write operations. WriteFile creates parent
// directories as needed and replaces existing content.
type FileWriter interface {
	WriteFile(ctx context.Context, path string, data []byte) error
}

// PathOperations provides path manipulation.
type PathOperations interface {
	Join(elem ...string) string
}

// FileSystem combines all file operations.
type FileSystem interface {
	FileReader
	FileWriter
	PathOperations
}

var fsxErrors = errx.NewRegistry("FSX")

var (
	ErrNotFound = fsxErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "File not found")
	ErrIO       = fsxErrors.Register("IO", errx.TypeExternal, 502, "File storage operation failed")
)

// NotFound builds an ErrNotFound for path.
func NotFound(path string) *errx.Error {
	return fsxErrors.New(ErrNotFound).WithDetail("path", path)
}

// IOError builds an ErrIO for op on path.
func IOError(op, path string, cause error) *errx.Error {
	return fsxErrors.NewWithCause(ErrIO, cause).
		WithDetail("op", op).
		WithDetail("path", path)
}
