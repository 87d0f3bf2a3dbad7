package imageref

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid data uri")

// DataURI encodes data as a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// ParseDataURI decodes a base64 or percent-encoded data URI.
func ParseDataURI(ref string) (mimeType string, data []byte, err error) {
	ref = strings.TrimSpace(ref)
	const prefix = "data:"
	if !strings.HasPrefix(ref, prefix) {
		return "", nil, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, prefix), ",")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}

	parts := strings.Split(meta, ";")
	mimeType = strings.TrimSpace(parts[0])
	if mimeType == "" {
		mimeType = "text/plain"
	}
	isBase64 := false
	for _, p := range parts[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
		}
		return mimeType, data, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return mimeType, []byte(decoded), nil
}

// SniffMime settles the content type of an uploaded or downloaded file,
// preferring a specific declared type over content sniffing.
func SniffMime(data []byte, declared string) string {
	mimeType := cleanMime(declared)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = cleanMime(http.DetectContentType(data))
	}
	if isSVG(mimeType, data) {
		return "image/svg+xml"
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/jpeg"
	}
	return mimeType
}

func cleanMime(value string) string {
	value = strings.TrimSpace(value)
	if strings.Contains(value, ";") {
		value = strings.TrimSpace(strings.SplitN(value, ";", 2)[0])
	}
	return strings.ToLower(value)
}

func isSVG(mimeType string, data []byte) bool {
	if mimeType == "image/svg+xml" {
		return true
	}
	if mimeType != "text/xml" && mimeType != "text/plain" && mimeType != "application/xml" {
		return false
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}
