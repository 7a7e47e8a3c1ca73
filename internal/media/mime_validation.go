package media

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// allowedImageTypes maps a sniffed content type to the stored extension.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

const allowedDescription = "JPEG, PNG or WebP images"

// sniffImage detects the content type from the bytes. The client supplied
// header is ignored.
func sniffImage(data []byte) (contentType, ext string, err error) {
	detected := mimetype.Detect(data)
	contentType = strings.ToLower(detected.String())
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", "", fmt.Errorf("unsupported file type %s", contentType)
	}
	return contentType, ext, nil
}
