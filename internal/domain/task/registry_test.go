package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop() Handler {
	return HandlerFunc(func(context.Context, *Task) (Outcome, error) { return Outcome{}, nil })
}

func TestNewRegistry_RequiresEveryType(t *testing.T) {
	_, err := NewRegistry(map[Type]Handler{TypeCleanupUnusedImages: noop()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(TypeUpdateInactiveUsers))
}

func TestNewRegistry_RejectsUnknownType(t *testing.T) {
	_, err := NewRegistry(map[Type]Handler{
		TypeCleanupUnusedImages: noop(),
		TypeUpdateInactiveUsers: noop(),
		Type("sendNewsletter"):  noop(),
	})
	assert.ErrorIs(t, err, ErrUnknownTaskType)
}

func TestRegistry_Lookup(t *testing.T) {
	registry, err := NewRegistry(map[Type]Handler{
		TypeCleanupUnusedImages: noop(),
		TypeUpdateInactiveUsers: noop(),
	})
	require.NoError(t, err)

	_, err = registry.Lookup(TypeCleanupUnusedImages)
	assert.NoError(t, err)

	_, err = registry.Lookup(Type("legacyType"))
	assert.ErrorIs(t, err, ErrUnknownTaskType)
}
