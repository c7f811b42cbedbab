package model

// Project groups tasks towards an outcome
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Goal        string `json:"goal,omitempty"`
	Color       string `json:"color,omitempty"`
	Archived    bool   `json:"archived"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// ProjectDraft carries the caller-supplied fields of a new project
type ProjectDraft struct {
	Name        string
	Description string
	Goal        string
	Color       string
}

// ProjectPatch is a partial update of a project
type ProjectPatch struct {
	Name        *string
	Description *string
	Goal        *string
	Color       *string
	Archived    *bool
}
