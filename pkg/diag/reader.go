package diag

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/klauspost/compress/gzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

// GzipReader reads .nc4.gz diag files. Files without a gzip header are
// parsed as plain NetCDF.
type GzipReader struct {
	// TempDir receives the decompressed copy; empty means os.TempDir().
	TempDir string
	logger  *slog.Logger
}

// NewGzipReader creates a reader that stages decompressed files in tempDir
func NewGzipReader(tempDir string, logger *slog.Logger) *GzipReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &GzipReader{TempDir: tempDir, logger: logger}
}

// Read implements Reader
func (r *GzipReader) Read(ctx context.Context, path string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	staged, err := r.stage(f)
	if err != nil {
		return nil, fmt.Errorf("failed to stage %s: %w", path, err)
	}
	defer os.Remove(staged)

	r.logger.Debug("decoding diag file", "path", path, "staged", staged)
	return decodeFile(path, staged)
}

// stage writes the (decompressed) content of src to a temp file, since the
// NetCDF decoder needs random access.
func (r *GzipReader) stage(src io.Reader) (string, error) {
	br := bufio.NewReader(src)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	var body io.Reader = br
	if len(head) == len(gzipMagic) && head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return "", fmt.Errorf("bad gzip header: %w", err)
		}
		defer zr.Close()
		body = zr
	}

	tmp, err := os.CreateTemp(r.TempDir, "diag-*.nc4")
	if err != nil {
		// %v: a missing temp dir must not look like a missing diag file
		return "", fmt.Errorf("failed to create temp file: %v", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to decompress: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close temp file: %v", err)
	}
	return tmp.Name(), nil
}
