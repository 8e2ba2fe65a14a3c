package ecs

import "slices"

type node struct {
	parent       EntityId
	children     []EntityId
	depth        int
	localActive  bool
	active       bool
	siblingIndex int
	dirty        bool
}

// HierarchyNode is the component attached to every entity that takes part in
// the hierarchy. It lets queries select hierarchy members like any other
// kind; the data behind it is owned by the world's Hierarchy and can only be
// changed through it.
type HierarchyNode struct {
	n *node
}

// Parent returns the parent id, or 0 for a root.
func (h HierarchyNode) Parent() EntityId {
	if h.n == nil {
		return 0
	}
	return h.n.parent
}

// Children returns a copy of the ordered child list.
func (h HierarchyNode) Children() []EntityId {
	if h.n == nil {
		return nil
	}
	return slices.Clone(h.n.children)
}

// Depth returns the number of ancestors.
func (h HierarchyNode) Depth() int {
	if h.n == nil {
		return 0
	}
	return h.n.depth
}

// ActiveSelf returns the local activation flag.
func (h HierarchyNode) ActiveSelf() bool {
	return h.n == nil || h.n.localActive
}

// Active returns the effective activation: the local flag AND every
// ancestor's local flag.
func (h HierarchyNode) Active() bool {
	return h.n == nil || h.n.active
}

// SiblingIndex returns the position within the parent's child list.
func (h HierarchyNode) SiblingIndex() int {
	if h.n == nil {
		return 0
	}
	return h.n.siblingIndex
}
