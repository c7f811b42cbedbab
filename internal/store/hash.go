package store

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/dori/gtdsync/internal/model"
	"github.com/mitchellh/hashstructure/v2"
)

type hashInput struct {
	Tasks    []model.Task    `json:"tasks"`
	Projects []model.Project `json:"projects"`
	Tags     []model.Tag     `json:"tags"`
}

// ComputeHash digests the three collections for change detection. The
// collections are sorted by id and tag ids by value first, so the digest
// does not depend on ordering. Sync metadata is excluded.
//
// The digest is taken over the canonical JSON rather than the structs:
// hashstructure reads a nil pointer as its zero value, which would make an
// unset due date and a due date at epoch 0 collide.
func ComputeHash(doc *model.Document) (string, error) {
	c := doc.Clone()
	in := hashInput{Tasks: c.Tasks, Projects: c.Projects, Tags: c.Tags}

	slices.SortFunc(in.Tasks, func(a, b model.Task) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(in.Projects, func(a, b model.Project) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(in.Tags, func(a, b model.Tag) int { return cmp.Compare(a.ID, b.ID) })
	for i := range in.Tasks {
		if in.Tasks[i].TagIDs == nil {
			in.Tasks[i].TagIDs = []string{}
		}
		slices.Sort(in.Tasks[i].TagIDs)
	}

	canonical, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("%w: encode for hash: %w", model.ErrStorage, err)
	}
	h, err := hashstructure.Hash(string(canonical), hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(h, 36), nil
}
