package image

import (
	"mime"
	"path/filepath"
	"strings"
)

// imageTypes maps each accepted extension to its canonical MIME type.
var imageTypes = map[string]string{
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Accepts reports whether a file passes the image gate. Either a known image
// extension or a declared image MIME type is enough; content is not sniffed.
func Accepts(originalName, contentType string) bool {
	_, extOK := imageTypes[extensionOf(originalName)]
	_, mimeOK := declaredSubtype(contentType)
	return extOK || mimeOK
}

// extensionOf returns the lowercased extension without the dot.
func extensionOf(name string) string {
	return strings.ToLower(rawExtension(name))
}

// rawExtension returns the extension as the client wrote it.
func rawExtension(name string) string {
	return strings.TrimPrefix(filepath.Ext(name), ".")
}

// declaredSubtype returns the image subtype of contentType when it is one of
// the accepted types.
func declaredSubtype(contentType string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	sub, ok := strings.CutPrefix(strings.ToLower(mediaType), "image/")
	if !ok {
		return "", false
	}
	if _, known := imageTypes[sub]; !known {
		return "", false
	}
	return sub, true
}

// storedExtension keeps the client's extension, casing included, when it is
// a plain token and otherwise derives one from the declared MIME type.
func storedExtension(originalName, contentType string) string {
	if ext := rawExtension(originalName); ext != "" && isToken(strings.ToLower(ext)) {
		return ext
	}
	sub, ok := declaredSubtype(contentType)
	if !ok {
		return ""
	}
	if sub == "jpeg" {
		return "jpg"
	}
	return sub
}

// mimeTypeFor prefers the extension mapping over the declared type.
func mimeTypeFor(ext, contentType string) string {
	if t, ok := imageTypes[strings.ToLower(ext)]; ok {
		return t
	}
	if sub, ok := declaredSubtype(contentType); ok {
		return imageTypes[sub]
	}
	return "application/octet-stream"
}

func isToken(s string) bool {
	if len(s) > 10 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
