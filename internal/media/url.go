package media

import "strings"

// URLBuilder turns storage keys into public URLs.
type URLBuilder struct {
	base string
}

// NewURLBuilder uses publicBaseURL when set, otherwise instanceURL/bucket.
func NewURLBuilder(publicBaseURL, instanceURL, bucket string) *URLBuilder {
	base := publicBaseURL
	if base == "" {
		base = strings.TrimRight(instanceURL, "/") + "/" + bucket
	}

	return &URLBuilder{base: strings.TrimRight(base, "/") + "/"}
}

// URL returns the public URL of key.
func (b *URLBuilder) URL(key string) string {
	return b.base + strings.TrimLeft(key, "/")
}
