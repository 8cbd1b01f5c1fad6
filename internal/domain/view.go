package domain

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidView is returned for view settings the store cannot answer.
var ErrInvalidView = errors.New("invalid view settings")

// TagClass classifies a tag in a view request.
type TagClass int

const (
	TagRequired TagClass = iota + 1
	TagBlocked
)

// String returns the lowercase class name.
func (c TagClass) String() string {
	switch c {
	case TagRequired:
		return "required"
	case TagBlocked:
		return "blocked"
	default:
		return fmt.Sprintf("TagClass(%d)", int(c))
	}
}

// SortOrder represents the sort direction over submission time.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// ViewSettings holds the parameters of one catalog page request.
type ViewSettings struct {
	PageIndex int                 // 1-based
	PageSize  int                 // Rows per page, positive
	Tags      map[string]TagClass // Label -> classification
	OrderBy   SortOrder
}

// DefaultViewSettings returns the first page, newest first.
func DefaultViewSettings() ViewSettings {
	return ViewSettings{
		PageIndex: 1,
		PageSize:  20,
		Tags:      map[string]TagClass{},
		OrderBy:   SortOrderDesc,
	}
}

// Offset is the number of rows skipped before the page.
// A page index below 1 yields a negative offset.
func (v ViewSettings) Offset() int {
	return v.PageSize * (v.PageIndex - 1)
}

// Limit is the number of rows requested from the store: one more than the
// page size, so the extra row tells whether another page exists.
func (v ViewSettings) Limit() int {
	return v.PageSize + 1
}

// Descending reports whether newer rows come first.
func (v ViewSettings) Descending() bool {
	return v.OrderBy != SortOrderAsc
}

// RequiredTags returns the REQUIRED labels, sorted.
func (v ViewSettings) RequiredTags() []string {
	return v.tagsOf(TagRequired)
}

// BlockedTags returns the BLOCKED labels, sorted.
func (v ViewSettings) BlockedTags() []string {
	return v.tagsOf(TagBlocked)
}

func (v ViewSettings) tagsOf(class TagClass) []string {
	labels := make([]string, 0, len(v.Tags))
	for label, c := range v.Tags {
		if c == class {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)

	return labels
}

// Check rejects settings that would produce an invalid query.
func (v ViewSettings) Check() error {
	if v.PageSize < 1 {
		return fmt.Errorf("%w: page size %d", ErrInvalidView, v.PageSize)
	}
	if v.Offset() < 0 {
		return fmt.Errorf("%w: page index %d", ErrInvalidView, v.PageIndex)
	}
	if v.OrderBy != SortOrderAsc && v.OrderBy != SortOrderDesc {
		return fmt.Errorf("%w: order %q", ErrInvalidView, v.OrderBy)
	}

	return nil
}

// ViewResult is one page of results.
type ViewResult[T any] struct {
	Results []T  `json:"results"`
	HasMore bool `json:"has_more"`
}

// NewViewResult builds a page from rows fetched with ViewSettings.Limit.
// Exactly pageSize+1 rows means another page exists; the extra row is dropped.
func NewViewResult[T any](rows []T, pageSize int) ViewResult[T] {
	if rows == nil {
		rows = []T{}
	}

	if len(rows) == pageSize+1 {
		return ViewResult[T]{Results: rows[:pageSize], HasMore: true}
	}

	return ViewResult[T]{Results: rows, HasMore: false}
}
