package enums

import "fmt"

// UploadFolder is the bucket prefix an admin upload lands in.
type UploadFolder string

const (
	UploadFolderProducts UploadFolder = "products"
	UploadFolderBanners  UploadFolder = "banners"
)

var validUploadFolders = []UploadFolder{
	UploadFolderProducts,
	UploadFolderBanners,
}

// String implements fmt.Stringer.
func (u UploadFolder) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UploadFolder.
func (u UploadFolder) IsValid() bool {
	for _, candidate := range validUploadFolders {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUploadFolder converts raw input into a UploadFolder.
func ParseUploadFolder(value string) (UploadFolder, error) {
	for _, candidate := range validUploadFolders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid upload folder %q", value)
}
