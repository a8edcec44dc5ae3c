package narrative

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// allowedImageTypes are the sniffed MIME types accepted as attachments.
var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// FileReader supplies the bytes of a file picked for attachment.
type FileReader interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// LocalFile is a FileReader over a path on disk.
type LocalFile string

// Name returns the base name of the path.
func (f LocalFile) Name() string { return filepath.Base(string(f)) }

// Open opens the file for reading.
func (f LocalFile) Open() (io.ReadCloser, error) { return os.Open(string(f)) }

// ReadImage reads f, enforces the size limit and the MIME allow-list, and
// returns the content as a data URL.
func ReadImage(f FileReader, maxBytes int64) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", f.Name(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", f.Name(), err)
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: %s is larger than %d bytes", types.ErrImageTooLarge, f.Name(), maxBytes)
	}
	mime := http.DetectContentType(data)
	if !allowedImageTypes[mime] {
		return "", fmt.Errorf("%w: %s is %s", types.ErrImageType, f.Name(), mime)
	}
	return EncodeDataURL(mime, data), nil
}

// EncodeDataURL builds a base64 data URL.
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL splits a base64 data URL into its MIME type and payload.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: not a data URL", types.ErrInvalidData)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: data URL has no payload", types.ErrInvalidData)
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: data URL is not base64", types.ErrInvalidData)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: decoding data URL: %v", types.ErrInvalidData, err)
	}
	return mime, data, nil
}

// CheckDataURL validates an image payload received from a client: it must
// decode, fit in maxBytes and carry an allowed image type.
func CheckDataURL(s string, maxBytes int64) error {
	if int64(base64.StdEncoding.DecodedLen(len(s))) > maxBytes+1024 {
		return fmt.Errorf("%w: payload exceeds %d bytes", types.ErrImageTooLarge, maxBytes)
	}
	_, data, err := DecodeDataURL(s)
	if err != nil {
		return err
	}
	if int64(len(data)) > maxBytes {
		return fmt.Errorf("%w: payload exceeds %d bytes", types.ErrImageTooLarge, maxBytes)
	}
	if mime := http.DetectContentType(data); !allowedImageTypes[mime] {
		return fmt.Errorf("%w: %s", types.ErrImageType, mime)
	}
	return nil
}
