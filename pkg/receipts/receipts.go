// Package receipts stores payment receipt files under the uploads directory.
package receipts

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"cartorio/pkg/apperr"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	// MaxSize is the largest accepted receipt, in bytes.
	MaxSize = 5 << 20
	// SubDir is the folder below the upload base that holds receipts.
	SubDir = "receipts"

	// MaxPixels caps width*height of image receipts.
	MaxPixels = 50_000_000

	MsgNoFile   = "no file uploaded"
	MsgBadType  = "invalid file type: only PNG, JPEG and PDF are allowed"
	MsgTooLarge = "file too large (max 5MB)"
)

var allowedTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"application/pdf": true,
}

var spaceRE = regexp.MustCompile(`\s+`)

// Allowed reports whether contentType is an accepted receipt media type.
func Allowed(contentType string) bool {
	return allowedTypes[mediaType(contentType)]
}

// Store places receipts in <Base>/receipts.
type Store struct {
	Base string
}

// NewStore returns a Store rooted at base and creates the receipts folder.
func NewStore(base string) (*Store, error) {
	s := &Store{Base: base}
	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		return nil, fmt.Errorf("create receipts dir: %w", err)
	}
	return s, nil
}

// Dir is the absolute or base-relative receipts folder.
func (s *Store) Dir() string {
	return filepath.Join(s.Base, SubDir)
}

// RelPath is the path recorded on a payment for file name.
func RelPath(name string) string {
	return path.Join(SubDir, name)
}

// Path maps a recorded relative path back to the filesystem.
func (s *Store) Path(rel string) string {
	return filepath.Join(s.Base, filepath.FromSlash(rel))
}

// Validate checks declared type, size and content of an uploaded receipt.
func Validate(fh *multipart.FileHeader) error {
	ct := fh.Header.Get("Content-Type")
	if !Allowed(ct) {
		return apperr.Validation(MsgBadType)
	}
	if fh.Size > MaxSize {
		return apperr.Validation(MsgTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return apperr.Internal(fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()
	return CheckContent(f, mediaType(ct))
}

// CheckContent sniffs r and rejects content that does not match contentType.
// Images must carry a valid header within MaxPixels; pixel data is never decoded.
func CheckContent(r io.ReadSeeker, contentType string) error {
	detected, err := mimetype.DetectReader(r)
	if err != nil {
		return apperr.Internal(fmt.Errorf("detect content type: %w", err))
	}
	if !matches(detected, contentType) {
		return apperr.Validation(MsgBadType)
	}
	var decodeConfig func(io.Reader) (image.Config, error)
	switch contentType {
	case "image/png":
		decodeConfig = png.DecodeConfig
	case "image/jpeg":
		decodeConfig = jpeg.DecodeConfig
	default:
		return nil
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return apperr.Internal(err)
	}
	cfg, err := decodeConfig(r)
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return apperr.Validation(MsgBadType)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return apperr.Validation(MsgBadType)
	}
	return nil
}

// matches reports whether m or one of its parents is contentType (an APNG is a PNG).
func matches(m *mimetype.MIME, contentType string) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(contentType) {
			return true
		}
	}
	return false
}

// GenerateName builds "<base>-<unix millis>-<suffix><ext>" from the client file name.
// Whitespace in the base collapses to "_"; the extension is kept as sent, and a
// missing one comes from contentType.
func GenerateName(filename, contentType string, now time.Time) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := filepath.Ext(filename)
	base := strings.TrimSpace(strings.TrimSuffix(filename, ext))
	base = spaceRE.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == "/" {
		base = "receipt"
	}
	if ext == "" {
		if m := mimetype.Lookup(mediaType(contentType)); m != nil {
			ext = m.Extension()
		}
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s%s", base, now.UnixMilli(), suffix, ext)
}

// Files lists the regular files in the receipts folder, sorted.
func (s *Store) Files() ([]string, error) {
	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// Orphans returns the files in the receipts folder that no payment references.
// referenced holds recorded paths such as "receipts/a.pdf".
func (s *Store) Orphans(referenced []string) ([]string, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(referenced))
	for _, r := range referenced {
		known[path.Base(filepath.ToSlash(r))] = true
	}
	var out []string
	for _, f := range files {
		if !known[f] {
			out = append(out, f)
		}
	}
	return out, nil
}

// Remove deletes the named files from the receipts folder and returns how many went away.
func (s *Store) Remove(names []string) (int, error) {
	n := 0
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.Dir(), filepath.Base(name))); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return n, err
		}
		n++
	}
	return n, nil
}

func mediaType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
