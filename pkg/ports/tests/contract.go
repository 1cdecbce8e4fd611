package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunStoreContract(t *testing.T, store ports.RunStore) {
	t.Helper()
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		report := &domain.RunReport{
			RunID:    runID,
			Artifact: "repo/doc.md",
			Entries:  []string{"doc"},
			Completed: []domain.StepResult{
				{Step: "doc", OutputPath: "out/doc/doc.txt"},
			},
			Failures: []domain.BranchFailure{
				{Step: "brd", Abandoned: []string{"specs"}, Message: "generation failed"},
			},
		}

		require.NoError(t, store.Save(ctx, report), "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, report.Artifact, loaded.Artifact)
		assert.Equal(t, []string{"doc"}, loaded.Entries)
		require.Len(t, loaded.Completed, 1)
		assert.Equal(t, "out/doc/doc.txt", loaded.Completed[0].OutputPath)
		require.Len(t, loaded.Failures, 1)
		assert.Equal(t, []string{"brd", "specs"}, loaded.Failures[0].Branch())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		require.NoError(t, store.Save(ctx, &domain.RunReport{RunID: id1}))
		require.NoError(t, store.Save(ctx, &domain.RunReport{RunID: id2}))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &domain.RunReport{RunID: runID}))
		require.NoError(t, store.Delete(ctx, runID), "Delete should not return error")

		_, err := store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})
}

// ArtifactStoreContract verifies the overwrite and read-back behaviour of an ArtifactStore.
func ArtifactStoreContract(t *testing.T, store ports.ArtifactStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Put and Get", func(t *testing.T) {
		loc, err := store.Put(ctx, "doc", "brd.txt", []byte("echo:X=1"))
		require.NoError(t, err)
		require.NotEmpty(t, loc)

		data, err := store.Get(ctx, loc)
		require.NoError(t, err)
		assert.Equal(t, "echo:X=1", string(data))
	})

	t.Run("Put Overwrites", func(t *testing.T) {
		first, err := store.Put(ctx, "doc", "specs.txt", []byte("v1"))
		require.NoError(t, err)
		second, err := store.Put(ctx, "doc", "specs.txt", []byte("v2"))
		require.NoError(t, err)
		assert.Equal(t, first, second, "same key and name must map to the same location")

		data, err := store.Get(ctx, second)
		require.NoError(t, err)
		assert.Equal(t, "v2", string(data))
	})

	t.Run("Artifacts Are Isolated", func(t *testing.T) {
		a, err := store.Put(ctx, "first", "out.txt", []byte("a"))
		require.NoError(t, err)
		b, err := store.Put(ctx, "second", "out.txt", []byte("b"))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

// PromptLoaderContract verifies a PromptLoader seeded with the given resources.
func PromptLoaderContract(t *testing.T, loader ports.PromptLoader, seeded map[string]domain.PromptResource) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadPrompt_Success", func(t *testing.T) {
		for name, want := range seeded {
			got, err := loader.LoadPrompt(ctx, name)
			require.NoError(t, err, "loading %s", name)
			assert.Equal(t, name, got.Name)
			assert.Equal(t, want.System, got.System, "system text of %s", name)
			assert.Equal(t, want.Template, got.Template, "template of %s", name)
		}
	})

	t.Run("LoadPrompt_NotFound", func(t *testing.T) {
		_, err := loader.LoadPrompt(ctx, "non-existent-step")
		assert.True(t, errors.Is(err, domain.ErrPromptNotFound), "expected ErrPromptNotFound, got %v", err)
	})

	t.Run("ListPrompts", func(t *testing.T) {
		names, err := loader.ListPrompts(ctx)
		require.NoError(t, err)
		for name := range seeded {
			assert.Contains(t, names, name)
		}
	})
}
