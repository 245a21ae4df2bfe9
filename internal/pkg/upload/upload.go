// Package upload checks incoming files by their leading bytes rather than
// by the name or content type the client claims.
package upload

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/h2non/filetype"
)

// headerSize is how many bytes filetype needs to recognise every format.
const headerSize = 262

var (
	ImageTypes    = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	ResourceTypes = []string{"image/jpeg", "image/png", "application/pdf"}
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
	ErrEmpty           = errors.New("file is empty")
)

// Checked describes a file whose type was sniffed.
type Checked struct {
	ContentType string
	Extension   string
}

// Sniff inspects the head of body and accepts it if its detected MIME type
// is in allowed. body is rewound before returning so it can be streamed
// as-is. size is the byte count reported by the multipart header.
func Sniff(body io.ReadSeeker, size, maxSize int64, allowed []string) (*Checked, error) {
	if maxSize > 0 && size > maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, size, maxSize)
	}
	head := make([]byte, headerSize)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read file header: %w", err)
	}
	if n == 0 {
		return nil, ErrEmpty
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind file: %w", err)
	}
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown || !slices.Contains(allowed, kind.MIME.Value) {
		return nil, ErrUnsupportedType
	}
	return &Checked{ContentType: kind.MIME.Value, Extension: "." + kind.Extension}, nil
}
