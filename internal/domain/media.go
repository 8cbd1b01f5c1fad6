package domain

import "fmt"

// ImageType is a kind of derivative produced from a source image.
type ImageType int

const (
	ImageTypeMedia ImageType = iota
	ImageTypeThumbnail
	ImageTypeAvatar
)

// ImagePolicy is the fixed output policy of an ImageType.
type ImagePolicy struct {
	MaxHeight   int
	JPEGQuality int
	Directory   string
}

var imagePolicies = map[ImageType]ImagePolicy{
	ImageTypeMedia:     {MaxHeight: 1024, JPEGQuality: 93, Directory: "media"},
	ImageTypeThumbnail: {MaxHeight: 200, JPEGQuality: 46, Directory: "thumbnails"},
	ImageTypeAvatar:    {MaxHeight: 200, JPEGQuality: 62, Directory: "avatars"},
}

// Policy returns the output policy for the type.
func (t ImageType) Policy() ImagePolicy {
	return imagePolicies[t]
}

// Valid reports whether t is one of the known types.
func (t ImageType) Valid() bool {
	_, ok := imagePolicies[t]
	return ok
}

// String returns the type's storage directory name.
func (t ImageType) String() string {
	if p, ok := imagePolicies[t]; ok {
		return p.Directory
	}

	return fmt.Sprintf("ImageType(%d)", int(t))
}

// ParseImageType maps a directory name back to its ImageType.
func ParseImageType(s string) (ImageType, bool) {
	for t, p := range imagePolicies {
		if p.Directory == s {
			return t, true
		}
	}

	return 0, false
}

// StorageKey is the content-addressed object key: <dir>/<hex digest>.jpeg.
func (t ImageType) StorageKey(hexDigest string) string {
	return t.Policy().Directory + "/" + hexDigest + ".jpeg"
}
