package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dcmc-apps/taskmanager/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestEntityErrorsWrapGenericOnes(t *testing.T) {
	t.Parallel()

	notFound := []error{
		store.ErrWorkGroupNotFound,
		store.ErrMembershipNotFound,
		store.ErrProjectNotFound,
		store.ErrTaskNotFound,
		store.ErrStatusNotFound,
		store.ErrPriorityNotFound,
	}
	for _, err := range notFound {
		assert.True(t, store.IsNotFoundError(err), err.Error())
		assert.False(t, store.IsDuplicateError(err), err.Error())
	}

	for _, err := range []error{store.ErrMembershipExists, store.ErrNameExists} {
		assert.True(t, store.IsDuplicateError(err), err.Error())
		assert.False(t, store.IsNotFoundError(err), err.Error())
	}
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	t.Run("with wrapped error", func(t *testing.T) {
		err := store.NewStoreError("task", "update", "row missing", store.ErrTaskNotFound)
		assert.Equal(t, "update operation on task failed: row missing: entity not found: task", err.Error())
		assert.True(t, errors.Is(err, store.ErrTaskNotFound))
		assert.True(t, store.IsNotFoundError(fmt.Errorf("outer: %w", err)))

		var se *store.StoreError
		assert.True(t, errors.As(fmt.Errorf("outer: %w", err), &se))
		assert.Equal(t, "task", se.Entity)
	})

	t.Run("without wrapped error", func(t *testing.T) {
		err := store.NewStoreError("project", "delete", "refused", nil)
		assert.Equal(t, "delete operation on project failed: refused", err.Error())
		assert.Nil(t, errors.Unwrap(err))
	})
}

func TestArchivedFilterMatches(t *testing.T) {
	t.Parallel()

	assert.True(t, store.ActiveOnly.Matches(false))
	assert.False(t, store.ActiveOnly.Matches(true))
	assert.True(t, store.ArchivedOnly.Matches(true))
	assert.False(t, store.ArchivedOnly.Matches(false))
	assert.True(t, store.AllTasks.Matches(true))
	assert.True(t, store.AllTasks.Matches(false))
}
