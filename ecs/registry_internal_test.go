package ecs

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentRegistryCapacity(t *testing.T) {
	r := NewComponentRegistry(1)
	require.Equal(t, 64, r.Capacity())

	byteType := reflect.TypeFor[byte]()
	for i := 0; i < r.Capacity(); i++ {
		_, err := r.add(reflect.ArrayOf(i+1, byteType), "", nil)
		require.NoError(t, err)
	}

	_, err := RegisterComponent[struct{ overflow int }](r)
	assert.True(t, errors.Is(err, ErrRegistryFull))
	assert.Equal(t, 64, r.Len(), "a full registry assigns no further bits")

	id, ok := r.ID(reflect.ArrayOf(64, byteType))
	assert.True(t, ok)
	assert.Equal(t, ComponentID(63), id)
}

func TestComponentRegistryCapacityLimit(t *testing.T) {
	r := NewComponentRegistry(MaxComponentCapacity + 1)
	require.Equal(t, MaxComponentCapacity, r.Capacity())

	// Every ComponentID value is taken.
	r.kinds = make([]*componentKind, MaxComponentCapacity)
	_, err := RegisterComponent[struct{ overflow int }](r)
	assert.True(t, errors.Is(err, ErrRegistryFull))
	assert.False(t, r.IsRegistered(reflect.TypeFor[struct{ overflow int }]()))
}
