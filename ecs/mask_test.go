package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	t.Run("set clear has", func(t *testing.T) {
		m := newMask(2)
		m.Set(0)
		m.Set(65)
		assert.True(t, m.Has(0))
		assert.True(t, m.Has(65))
		assert.False(t, m.Has(1))
		assert.Equal(t, 2, m.Count())

		m.Clear(65)
		assert.False(t, m.Has(65))
		assert.Equal(t, 1, m.Count())
	})

	t.Run("bits beyond the width are never set", func(t *testing.T) {
		m := newMask(1)
		assert.False(t, m.Has(64))
		assert.False(t, m.Has(1000))
	})

	t.Run("containment and intersection", func(t *testing.T) {
		holder := newMask(2)
		holder.Set(1)
		holder.Set(3)
		holder.Set(70)

		required := newMask(2)
		required.Set(1)
		required.Set(70)
		assert.True(t, holder.ContainsAll(required))

		required.Set(2)
		assert.False(t, holder.ContainsAll(required))
		assert.True(t, holder.Intersects(required))

		disjoint := newMask(2)
		disjoint.Set(5)
		assert.False(t, holder.Intersects(disjoint))
		assert.True(t, holder.ContainsAll(newMask(2)))
	})

	t.Run("for each visits ascending", func(t *testing.T) {
		m := newMask(2)
		for _, id := range []ComponentID{66, 3, 0, 63} {
			m.Set(id)
		}
		var seen []ComponentID
		m.ForEach(func(id ComponentID) { seen = append(seen, id) })
		assert.Equal(t, []ComponentID{0, 3, 63, 66}, seen)
	})

	t.Run("clone is independent", func(t *testing.T) {
		m := newMask(1)
		m.Set(4)
		c := m.Clone()
		c.Set(5)
		assert.False(t, m.Has(5))
		assert.True(t, c.Has(4))
		assert.True(t, c.Has(5))
		assert.False(t, c.Equal(m))
	})

	t.Run("or and reset", func(t *testing.T) {
		a := newMask(1)
		a.Set(1)
		b := newMask(1)
		b.Set(2)
		a.Or(b)
		assert.Equal(t, 2, a.Count())
		a.reset()
		assert.True(t, a.IsZero())
	})

	t.Run("string renders lowest bit rightmost", func(t *testing.T) {
		m := newMask(1)
		assert.Equal(t, "0", m.String())
		m.Set(0)
		m.Set(1)
		assert.Equal(t, "11", m.String())
		m.Clear(0)
		assert.Equal(t, "10", m.String())
	})
}
