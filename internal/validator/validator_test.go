package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	SourceURN string   `json:"source_urn" validate:"omitempty,urn"`
	MediaURL  string   `json:"media_url" validate:"required,url"`
	Tags      []string `json:"tags" validate:"max=2,dive,required,excludes=0x2C"`
}

func TestValidate_Valid(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&sample{MediaURL: "https://i.pximg.net/a.png"}))
	assert.NoError(t, v.Validate(&sample{
		SourceURN: "urn:pixiv:artwork:1",
		MediaURL:  "https://i.pximg.net/a.png",
		Tags:      []string{"cat"},
	}))
}

func TestValidate_Errors(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		in      sample
		field   string
		tag     string
		message string
	}{
		{
			name:    "not a urn",
			in:      sample{SourceURN: "pixiv:artwork:1", MediaURL: "https://x"},
			field:   "source_urn",
			tag:     "urn",
			message: `source_urn must start with "urn:"`,
		},
		{
			name:    "missing media url",
			in:      sample{},
			field:   "media_url",
			tag:     "required",
			message: "media_url is required",
		},
		{
			name:    "relative media url",
			in:      sample{MediaURL: "a.png"},
			field:   "media_url",
			tag:     "url",
			message: "media_url must be an absolute URL",
		},
		{
			name:    "too many tags",
			in:      sample{MediaURL: "https://x", Tags: []string{"a", "b", "c"}},
			field:   "tags",
			tag:     "max",
			message: "tags must be at most 2",
		},
		{
			name:    "comma in tag",
			in:      sample{MediaURL: "https://x", Tags: []string{"a,b"}},
			field:   "tags[0]",
			tag:     "excludes",
			message: `tags[0] must not contain ","`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.in)
			require.Error(t, err)

			errs, ok := err.(ValidationErrors)
			require.True(t, ok)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.tag, errs[0].Tag)
			assert.Equal(t, tt.message, errs[0].Message)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Message: "a is required"},
		{Field: "b", Message: "b must be at least 1"},
	}

	assert.Equal(t, "a is required; b must be at least 1", errs.Error())
	assert.Empty(t, ValidationErrors{}.Error())
}
