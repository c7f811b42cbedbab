package store

import (
	"context"
	"strings"
	"testing"

	"github.com/dori/gtdsync/internal/kv"
	"github.com/dori/gtdsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_IsIndentedAndDeterministic(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory())
	require.NoError(t, s.Save(ctx, sampleDoc()))

	first, err := s.Export(ctx)
	require.NoError(t, err)
	second, err := s.Export(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "{\n  \"tasks\": ["), "export should be pretty-printed: %s", first[:20])
}

func TestImport_ReplacesDocument(t *testing.T) {
	ctx := context.Background()
	src := New(kv.NewMemory())
	require.NoError(t, src.Save(ctx, sampleDoc()))
	snapshot, err := src.Export(ctx)
	require.NoError(t, err)

	dst := New(kv.NewMemory())
	require.NoError(t, dst.Save(ctx, &model.Document{
		Tasks: []model.Task{{ID: "old", Title: "Old task", TagIDs: []string{}}},
	}))

	require.NoError(t, dst.Import(ctx, snapshot))
	doc, err := dst.Cached(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc().Tasks, doc.Tasks)
	assert.Equal(t, -1, doc.TaskIndex("old"), "import must not merge")
}

func TestImport_RejectsMalformedPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "hello"},
		{"array", `[]`},
		{"missing tags", `{"tasks":[],"projects":[]}`},
		{"missing tasks", `{"projects":[],"tags":[]}`},
		{"null projects", `{"tasks":[],"projects":null,"tags":[]}`},
		{"tasks not array", `{"tasks":{},"projects":[],"tags":[]}`},
		{"bad task", `{"tasks":[{"id":5}],"projects":[],"tags":[]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			s := New(kv.NewMemory())
			require.NoError(t, s.Save(ctx, sampleDoc()))
			before, err := s.Export(ctx)
			require.NoError(t, err)

			err = s.Import(ctx, tc.payload)
			assert.ErrorIs(t, err, model.ErrValidation)

			after, err := s.Export(ctx)
			require.NoError(t, err)
			assert.Equal(t, before, after, "failed import must leave the document unchanged")
		})
	}
}
