package util

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"strings"
)

const MimePDF = "application/pdf"

// IsPDF checks the %PDF- magic. Leading whitespace or a BOM before the
// header is tolerated within the first 1 KiB, as readers do.
func IsPDF(b []byte) bool {
	head := b
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("%PDF-"))
}

// SniffMime returns application/pdf for PDFs and falls back to
// http.DetectContentType otherwise.
func SniffMime(b []byte) string {
	if IsPDF(b) {
		return MimePDF
	}
	if len(b) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(b)
}

// DecodeBase64MaybeDataURL decodes a base64 payload, optionally wrapped
// as a data URI. The MIME type from the data URI prefix is returned as a
// hint. Standard, URL-safe and unpadded alphabets are accepted.
func DecodeBase64MaybeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var hint string
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		if meta, payload, found := strings.Cut(rest, ","); found {
			hint, _, _ = strings.Cut(meta, ";")
			s = payload
		}
	}
	var firstErr error
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, hint, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, "", firstErr
}

// PickMIME prefers the explicit MIME, then the data:URI hint, then sniffs.
func PickMIME(explicit, hint string, data []byte) string {
	if exp := strings.TrimSpace(explicit); exp != "" {
		return exp
	}
	if h := strings.TrimSpace(hint); h != "" {
		return h
	}
	return SniffMime(data)
}
