package storage

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// MIMEOctetStream is returned when the type cannot be determined.
const MIMEOctetStream = "application/octet-stream"

// sniffLen is the prefix length http.DetectContentType inspects.
const sniffLen = 512

var mimeExtensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/bmp":     ".bmp",
	"image/tiff":    ".tiff",
	"image/heic":    ".heic",
	"image/avif":    ".avif",

	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/vnd.ms-excel": ".xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         ".xlsx",
	"application/vnd.ms-powerpoint":                                             ".ppt",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
	"text/plain":       ".txt",
	"text/csv":         ".csv",
	"text/html":        ".html",
	"application/rtf":  ".rtf",
	"application/json": ".json",
	"application/xml":  ".xml",
	"application/sql":  ".sql",

	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/quicktime": ".mov",
	"audio/mpeg":      ".mp3",
	"audio/wav":       ".wav",
	"audio/ogg":       ".ogg",
	"audio/flac":      ".flac",

	"application/zip":              ".zip",
	"application/gzip":             ".gz",
	"application/x-gzip":           ".gz",
	"application/x-tar":            ".tar",
	"application/x-7z-compressed":  ".7z",
	"application/x-rar-compressed": ".rar",
	"application/x-bzip2":          ".bz2",
}

// DetectMIME sniffs the content type of r and returns a reader positioned at
// the start of the payload. The AWS SDK needs a seekable body to sign it, so
// non-seekable readers are buffered in memory.
func DetectMIME(r io.Reader) (string, io.ReadSeeker, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", nil, err
		}
		rs = bytes.NewReader(data)
	}

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(rs, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", nil, err
	}
	if n == 0 {
		return MIMEOctetStream, rs, nil
	}
	return NormalizeMIME(http.DetectContentType(buf[:n])), rs, nil
}

// ResolveMIME refines a sniffed type with the file name. Sniffing cannot tell
// office documents from zip archives or CSV from plain text, so for those
// generic results the extension wins when it maps to a known type.
func ResolveMIME(sniffed, filename string) string {
	sniffed = NormalizeMIME(sniffed)
	switch sniffed {
	case "", MIMEOctetStream, "text/plain", "application/zip":
	default:
		return sniffed
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fallbackMIME(sniffed)
	}
	if byExt := NormalizeMIME(mime.TypeByExtension(ext)); byExt != "" {
		return byExt
	}
	for m, e := range mimeExtensions {
		if e == ext {
			return m
		}
	}
	return fallbackMIME(sniffed)
}

func fallbackMIME(sniffed string) string {
	if sniffed == "" {
		return MIMEOctetStream
	}
	return sniffed
}

// ExtFromMIME returns the preferred extension for a MIME type, or "".
func ExtFromMIME(mimeType string) string {
	return mimeExtensions[NormalizeMIME(mimeType)]
}

// NormalizeMIME lowercases a MIME type and strips its parameters.
func NormalizeMIME(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.TrimSpace(strings.ToLower(mimeType))
}

// MatchesMIME reports whether mimeType matches any pattern. Patterns may
// end in "/*" to match a whole family.
func MatchesMIME(mimeType string, patterns []string) bool {
	mimeType = NormalizeMIME(mimeType)
	for _, p := range patterns {
		p = strings.TrimSpace(strings.ToLower(p))
		if mimeType == p {
			return true
		}
		if prefix, ok := strings.CutSuffix(p, "*"); ok && strings.HasSuffix(prefix, "/") && strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return false
}
