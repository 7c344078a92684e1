package media

import (
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// Kind is one of the fixed set of presentation kinds a media file can belong to.
type Kind int

// Kinds in tie-break priority order: when two non-empty buckets share the same
// max modification time, the lower Kind value wins the scan.
const (
	KindImage Kind = iota
	KindDocument
	KindVideo
	KindSlides
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "images"
	case KindDocument:
		return "document"
	case KindVideo:
		return "videos"
	case KindSlides:
		return "slides"
	default:
		return "unknown"
	}
}

// Kinds lists all presentation kinds in priority order.
func Kinds() []Kind {
	return []Kind{KindImage, KindDocument, KindVideo, KindSlides}
}

// File is one scanned media file. Rebuilt on every scan, never persisted.
type File struct {
	Name       string
	ModifiedAt time.Time
}

const odpContentType = "application/vnd.oasis.opendocument.presentation"

func init() {
	// The platform mime table is not guaranteed to know the container
	// formats unattended players most commonly receive, so register them.
	for ext, contentType := range map[string]string{
		".odp":  odpContentType,
		".mp4":  "video/mp4",
		".m4v":  "video/mp4",
		".mkv":  "video/x-matroska",
		".avi":  "video/x-msvideo",
		".mov":  "video/quicktime",
		".webm": "video/webm",
		".mpg":  "video/mpeg",
		".mpeg": "video/mpeg",
		".bmp":  "image/bmp",
	} {
		_ = mime.AddExtensionType(ext, contentType)
	}
}

// KindOf classifies a file name by its extension-derived content type.
// Unrecognized names report ok=false and are skipped by the scanner.
func KindOf(name string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return 0, false
	}
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		return 0, false
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	switch {
	case contentType == "application/pdf":
		return KindDocument, true
	case contentType == odpContentType:
		return KindSlides, true
	case strings.HasPrefix(contentType, "image/"):
		return KindImage, true
	case strings.HasPrefix(contentType, "video/"):
		return KindVideo, true
	default:
		return 0, false
	}
}
