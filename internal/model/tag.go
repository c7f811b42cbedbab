package model

import "strings"

// Tag represents a context tag like @home, @work, @errands
type Tag struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// DisplayName returns the tag name with @ prefix if not already present
func (t *Tag) DisplayName() string {
	if len(t.Name) > 0 && t.Name[0] == '@' {
		return t.Name
	}
	return "@" + t.Name
}

// SameName reports whether name matches the tag's name, ignoring case
func (t *Tag) SameName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(t.Name), strings.TrimSpace(name))
}

// TagPatch is a partial update of a tag
type TagPatch struct {
	Name  *string
	Color *string
}
