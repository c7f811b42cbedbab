package model

import "slices"

// SchemaVersion is stamped on every saved Document
const SchemaVersion = "1.0"

// Document is the root aggregate: the unit of storage and of sync
type Document struct {
	Tasks    []Task    `json:"tasks"`
	Projects []Project `json:"projects"`
	Tags     []Tag     `json:"tags"`
	Version  string    `json:"version"`
	LastSync *int64    `json:"lastSync,omitempty"`
	SyncHash string    `json:"syncHash,omitempty"`
}

// NewDocument returns an empty Document at the current schema version
func NewDocument() *Document {
	return &Document{
		Tasks:    []Task{},
		Projects: []Project{},
		Tags:     []Tag{},
		Version:  SchemaVersion,
	}
}

// Normalize replaces nil collections with empty ones so they encode as []
func (d *Document) Normalize() {
	if d.Tasks == nil {
		d.Tasks = []Task{}
	}
	if d.Projects == nil {
		d.Projects = []Project{}
	}
	if d.Tags == nil {
		d.Tags = []Tag{}
	}
	for i := range d.Tasks {
		if d.Tasks[i].TagIDs == nil {
			d.Tasks[i].TagIDs = []string{}
		}
	}
}

// Clone returns a deep copy of the document
func (d *Document) Clone() *Document {
	c := &Document{
		Tasks:    make([]Task, len(d.Tasks)),
		Projects: slices.Clone(d.Projects),
		Tags:     slices.Clone(d.Tags),
		Version:  d.Version,
		LastSync: clonePtr(d.LastSync),
		SyncHash: d.SyncHash,
	}
	for i, t := range d.Tasks {
		c.Tasks[i] = t.Clone()
	}
	c.Normalize()
	return c
}

// TaskIndex returns the position of the task with id, or -1
func (d *Document) TaskIndex(id string) int {
	return slices.IndexFunc(d.Tasks, func(t Task) bool { return t.ID == id })
}

// ProjectIndex returns the position of the project with id, or -1
func (d *Document) ProjectIndex(id string) int {
	return slices.IndexFunc(d.Projects, func(p Project) bool { return p.ID == id })
}

// TagIndex returns the position of the tag with id, or -1
func (d *Document) TagIndex(id string) int {
	return slices.IndexFunc(d.Tags, func(t Tag) bool { return t.ID == id })
}
