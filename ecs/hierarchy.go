package ecs

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
)

// DefaultMaxDispatchDepth bounds listener-triggered recursion: events raised
// by hierarchy changes made from inside listeners are dropped past this depth.
const DefaultMaxDispatchDepth = 8

// HierarchyEventKind classifies a structural change.
type HierarchyEventKind int

const (
	// ParentChanged is raised on the child whose parent link changed.
	ParentChanged HierarchyEventKind = iota
	// ChildAdded is raised when Entity is appended to Parent's children.
	ChildAdded
	// ChildRemoved is raised when Entity leaves Parent's children.
	ChildRemoved
	// ActiveChanged is raised when Entity's effective activation flips.
	ActiveChanged
)

func (k HierarchyEventKind) String() string {
	switch k {
	case ParentChanged:
		return "ParentChanged"
	case ChildAdded:
		return "ChildAdded"
	case ChildRemoved:
		return "ChildRemoved"
	case ActiveChanged:
		return "ActiveChanged"
	default:
		return fmt.Sprintf("HierarchyEventKind(%d)", int(k))
	}
}

// HierarchyEvent describes one change. Parent is the parent involved (the
// new parent for ParentChanged, 0 when the entity became a root) and
// Previous the former parent for ParentChanged.
type HierarchyEvent struct {
	Kind     HierarchyEventKind
	Entity   EntityId
	Parent   EntityId
	Previous EntityId
	Active   bool
}

// Hierarchy maintains parent/child links between entities of one World along
// with each node's depth and activation state.
//
// Every mutation marks the affected subtree dirty and settles before
// returning: dirty nodes are ordered by depth, walked fresh from their parent
// chain, so a parent is final before any of its children are recomputed.
// Listeners run after the graph has settled.
type Hierarchy struct {
	world     *World
	nodes     *intmap.Map[EntityId, *node]
	dirty     []EntityId
	listeners observers[HierarchyEvent]
	pending   []HierarchyEvent

	dispatchDepth    int
	maxDispatchDepth int
}

func newHierarchy(w *World) *Hierarchy {
	depth := w.config.MaxDispatchDepth
	if depth <= 0 {
		depth = DefaultMaxDispatchDepth
	}
	return &Hierarchy{
		world:            w,
		nodes:            intmap.New[EntityId, *node](256),
		maxDispatchDepth: depth,
	}
}

// Subscribe registers fn for every hierarchy event. A listener that panics is
// logged and does not stop the remaining listeners or the operation that
// raised the event.
func (h *Hierarchy) Subscribe(fn func(HierarchyEvent)) Subscription {
	return h.listeners.subscribe(fn)
}

// Unsubscribe removes a listener. Returns false if sub is unknown.
func (h *Hierarchy) Unsubscribe(sub Subscription) bool {
	return h.listeners.unsubscribe(sub)
}

func (h *Hierarchy) nodeOf(id EntityId) *node {
	n, ok := h.nodes.Get(id)
	if !ok {
		return nil
	}
	return n
}

func (h *Hierarchy) ensureNode(id EntityId) (*node, error) {
	if n := h.nodeOf(id); n != nil {
		return n, nil
	}
	e, ok := h.world.entities.Get(id)
	if !ok {
		return nil, eris.Wrapf(ErrNoSuchEntity, "entity %d", id)
	}
	kind, err := h.world.hierarchyKind()
	if err != nil {
		return nil, err
	}
	n := &node{localActive: true, active: true}
	if err := h.world.attach(e, kind, HierarchyNode{n: n}); err != nil {
		return nil, err
	}
	h.nodes.Put(id, n)
	return n, nil
}

// AddChild makes child the last child of parent. A child with another parent
// is detached from it first. Fails without changing the graph when
// parent == child or when child is an ancestor of parent.
func (h *Hierarchy) AddChild(parent, child EntityId) error {
	if parent == child {
		return eris.Wrapf(ErrSelfParent, "entity %d", child)
	}
	if !h.world.Alive(parent) {
		return eris.Wrapf(ErrNoSuchEntity, "parent %d", parent)
	}
	if !h.world.Alive(child) {
		return eris.Wrapf(ErrNoSuchEntity, "child %d", child)
	}
	if h.IsAncestorOf(child, parent) {
		return eris.Wrapf(ErrCycle, "entity %d is an ancestor of %d", child, parent)
	}

	pn, err := h.ensureNode(parent)
	if err != nil {
		return err
	}
	cn, err := h.ensureNode(child)
	if err != nil {
		return err
	}
	if cn.parent == parent {
		return nil
	}

	previous := cn.parent
	if previous != 0 {
		h.unlink(previous, child, cn)
		h.raise(HierarchyEvent{Kind: ChildRemoved, Entity: child, Parent: previous})
	}

	cn.parent = parent
	cn.siblingIndex = len(pn.children)
	pn.children = append(pn.children, child)
	h.markSubtreeDirty(child)
	h.settle()

	h.raise(HierarchyEvent{Kind: ParentChanged, Entity: child, Parent: parent, Previous: previous})
	h.raise(HierarchyEvent{Kind: ChildAdded, Entity: child, Parent: parent})
	h.flush()
	return nil
}

// RemoveChild detaches child from parent, making it a root. Returns false
// when child's parent is not parent.
func (h *Hierarchy) RemoveChild(parent, child EntityId) bool {
	cn := h.nodeOf(child)
	if cn == nil || parent == 0 || cn.parent != parent {
		return false
	}
	h.unlink(parent, child, cn)
	h.markSubtreeDirty(child)
	h.settle()

	h.raise(HierarchyEvent{Kind: ChildRemoved, Entity: child, Parent: parent})
	h.raise(HierarchyEvent{Kind: ParentChanged, Entity: child, Previous: parent})
	h.flush()
	return true
}

// SetParent links child under parent, or detaches it when parent is 0.
func (h *Hierarchy) SetParent(child, parent EntityId) error {
	if parent != 0 {
		return h.AddChild(parent, child)
	}
	if !h.world.Alive(child) {
		return eris.Wrapf(ErrNoSuchEntity, "child %d", child)
	}
	if cn := h.nodeOf(child); cn != nil && cn.parent != 0 {
		h.RemoveChild(cn.parent, child)
	}
	return nil
}

func (h *Hierarchy) unlink(parent, child EntityId, cn *node) {
	pn := h.nodeOf(parent)
	if pn != nil {
		idx := cn.siblingIndex
		if idx >= len(pn.children) || pn.children[idx] != child {
			idx = slices.Index(pn.children, child)
		}
		if idx >= 0 {
			pn.children = slices.Delete(pn.children, idx, idx+1)
			h.reindex(pn, idx)
		}
	}
	cn.parent = 0
	cn.siblingIndex = 0
}

func (h *Hierarchy) reindex(pn *node, from int) {
	for i := from; i < len(pn.children); i++ {
		if cn := h.nodeOf(pn.children[i]); cn != nil {
			cn.siblingIndex = i
		}
	}
}

// Parent returns id's parent. The second result is false for roots.
func (h *Hierarchy) Parent(id EntityId) (EntityId, bool) {
	n := h.nodeOf(id)
	if n == nil || n.parent == 0 {
		return 0, false
	}
	return n.parent, true
}

// Children returns a copy of id's ordered child list.
func (h *Hierarchy) Children(id EntityId) []EntityId {
	n := h.nodeOf(id)
	if n == nil {
		return nil
	}
	return slices.Clone(n.children)
}

// IsRoot reports whether id has no parent.
func (h *Hierarchy) IsRoot(id EntityId) bool {
	n := h.nodeOf(id)
	return n == nil || n.parent == 0
}

// Root returns the topmost ancestor of id, or id itself for a root.
func (h *Hierarchy) Root(id EntityId) EntityId {
	current := id
	for steps := 0; steps <= h.nodes.Len(); steps++ {
		n := h.nodeOf(current)
		if n == nil || n.parent == 0 {
			return current
		}
		current = n.parent
	}
	return current
}

// Roots returns every live entity without a parent, in ascending id order.
func (h *Hierarchy) Roots() []EntityId {
	var roots []EntityId
	for _, id := range h.world.alive {
		if h.IsRoot(id) {
			roots = append(roots, id)
		}
	}
	return roots
}

// IsAncestorOf reports whether ancestor appears on the parent chain of id.
func (h *Hierarchy) IsAncestorOf(ancestor, id EntityId) bool {
	n := h.nodeOf(id)
	for steps := 0; n != nil && n.parent != 0 && steps <= h.nodes.Len(); steps++ {
		if n.parent == ancestor {
			return true
		}
		n = h.nodeOf(n.parent)
	}
	return false
}

// Depth returns the number of ancestors of id; roots are at depth 0.
func (h *Hierarchy) Depth(id EntityId) int {
	h.settle()
	n := h.nodeOf(id)
	if n == nil {
		return 0
	}
	return n.depth
}

// SiblingIndex returns id's position among its parent's children.
func (h *Hierarchy) SiblingIndex(id EntityId) int {
	n := h.nodeOf(id)
	if n == nil {
		return 0
	}
	return n.siblingIndex
}

// SetSiblingIndex moves id to index within its parent's child list. The
// index is clamped to the list bounds. Returns false for roots.
func (h *Hierarchy) SetSiblingIndex(id EntityId, index int) bool {
	n := h.nodeOf(id)
	if n == nil || n.parent == 0 {
		return false
	}
	pn := h.nodeOf(n.parent)
	if pn == nil {
		return false
	}
	index = max(0, min(index, len(pn.children)-1))
	pn.children = slices.Delete(pn.children, n.siblingIndex, n.siblingIndex+1)
	pn.children = slices.Insert(pn.children, index, id)
	h.reindex(pn, 0)
	return true
}

// FindChildByName returns the first child of parent named name. With
// recursive set the search continues breadth-first through descendants.
func (h *Hierarchy) FindChildByName(parent EntityId, name string, recursive bool) (EntityId, bool) {
	var found EntityId
	h.walkChildren(parent, recursive, func(id EntityId) bool {
		if h.world.Name(id) == name {
			found = id
			return false
		}
		return true
	})
	return found, found != 0
}

// FindChildrenByTag returns the children of parent tagged tag, breadth-first
// through descendants when recursive is set.
func (h *Hierarchy) FindChildrenByTag(parent EntityId, tag string, recursive bool) []EntityId {
	var found []EntityId
	h.walkChildren(parent, recursive, func(id EntityId) bool {
		if h.world.Tag(id) == tag {
			found = append(found, id)
		}
		return true
	})
	return found
}

func (h *Hierarchy) walkChildren(parent EntityId, recursive bool, visit func(EntityId) bool) {
	n := h.nodeOf(parent)
	if n == nil {
		return
	}
	queue := slices.Clone(n.children)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if !visit(id) {
			return
		}
		if recursive {
			if cn := h.nodeOf(id); cn != nil {
				queue = append(queue, cn.children...)
			}
		}
	}
}

// Descendants returns every descendant of id in depth-first pre-order.
func (h *Hierarchy) Descendants(id EntityId) []EntityId {
	n := h.nodeOf(id)
	if n == nil {
		return nil
	}
	var out []EntityId
	stack := make([]EntityId, 0, len(n.children))
	for i := len(n.children) - 1; i >= 0; i-- {
		stack = append(stack, n.children[i])
	}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, current)
		if cn := h.nodeOf(current); cn != nil {
			for i := len(cn.children) - 1; i >= 0; i-- {
				stack = append(stack, cn.children[i])
			}
		}
	}
	return out
}

// SetActive sets id's local activation flag and recomputes the effective
// activation of its entire subtree. Returns false for unknown entities.
func (h *Hierarchy) SetActive(id EntityId, active bool) bool {
	n, err := h.ensureNode(id)
	if err != nil {
		return false
	}
	if n.localActive == active {
		return true
	}
	n.localActive = active
	h.markSubtreeDirty(id)
	h.settle()
	h.flush()
	return true
}

// IsActive returns id's effective activation. Entities outside the hierarchy
// are active while alive.
func (h *Hierarchy) IsActive(id EntityId) bool {
	h.settle()
	n := h.nodeOf(id)
	if n == nil {
		return h.world.Alive(id)
	}
	return n.active
}

// IsActiveSelf returns id's local activation flag.
func (h *Hierarchy) IsActiveSelf(id EntityId) bool {
	n := h.nodeOf(id)
	if n == nil {
		return h.world.Alive(id)
	}
	return n.localActive
}

// Cleanup removes id from the graph: it is detached from its parent, its
// children become roots and its HierarchyNode is removed. Returns false when
// id had no node.
func (h *Hierarchy) Cleanup(id EntityId) bool {
	n := h.nodeOf(id)
	if n == nil {
		return false
	}

	if parent := n.parent; parent != 0 {
		h.unlink(parent, id, n)
		h.raise(HierarchyEvent{Kind: ChildRemoved, Entity: id, Parent: parent})
		h.raise(HierarchyEvent{Kind: ParentChanged, Entity: id, Previous: parent})
	}
	for _, child := range n.children {
		cn := h.nodeOf(child)
		if cn == nil {
			continue
		}
		cn.parent = 0
		cn.siblingIndex = 0
		h.markSubtreeDirty(child)
		h.raise(HierarchyEvent{Kind: ChildRemoved, Entity: child, Parent: id})
		h.raise(HierarchyEvent{Kind: ParentChanged, Entity: child, Previous: id})
	}
	n.children = nil

	h.nodes.Del(id)
	if e, ok := h.world.entities.Get(id); ok && h.world.hasNode && e.mask.Has(h.world.nodeKind) {
		h.world.detachRaw(e, h.world.nodeKind)
	}

	h.settle()
	h.flush()
	return true
}

func (h *Hierarchy) markSubtreeDirty(root EntityId) {
	stack := []EntityId{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := h.nodeOf(id)
		if n == nil {
			continue
		}
		if !n.dirty {
			n.dirty = true
			h.dirty = append(h.dirty, id)
		}
		stack = append(stack, n.children...)
	}
}

func (h *Hierarchy) walkDepth(n *node) int {
	depth := 0
	limit := h.nodes.Len()
	for n != nil && n.parent != 0 && depth <= limit {
		depth++
		n = h.nodeOf(n.parent)
	}
	return depth
}

type dirtyNode struct {
	id    EntityId
	n     *node
	depth int
}

// settle recomputes every dirty node in ascending depth order.
func (h *Hierarchy) settle() {
	if len(h.dirty) == 0 {
		return
	}
	batch := make([]dirtyNode, 0, len(h.dirty))
	for _, id := range h.dirty {
		n := h.nodeOf(id)
		if n == nil || !n.dirty {
			continue
		}
		batch = append(batch, dirtyNode{id: id, n: n, depth: h.walkDepth(n)})
	}
	h.dirty = h.dirty[:0]

	slices.SortStableFunc(batch, func(a, b dirtyNode) int {
		return cmp.Compare(a.depth, b.depth)
	})

	for _, d := range batch {
		parentActive := true
		if d.n.parent != 0 {
			if pn := h.nodeOf(d.n.parent); pn != nil {
				parentActive = pn.active
			}
		}
		was := d.n.active
		d.n.depth = d.depth
		d.n.active = d.n.localActive && parentActive
		d.n.dirty = false
		if was != d.n.active {
			h.raise(HierarchyEvent{Kind: ActiveChanged, Entity: d.id, Parent: d.n.parent, Active: d.n.active})
		}
	}
}

func (h *Hierarchy) raise(ev HierarchyEvent) {
	if h.listeners.len() == 0 {
		return
	}
	h.pending = append(h.pending, ev)
}

// flush dispatches the events raised by the operation that just settled.
func (h *Hierarchy) flush() {
	if len(h.pending) == 0 {
		return
	}
	events := h.pending
	h.pending = nil

	if h.dispatchDepth >= h.maxDispatchDepth {
		h.world.logger.Warn("hierarchy event dispatch too deep, dropping events",
			"depth", h.dispatchDepth, "dropped", len(events))
		return
	}

	h.dispatchDepth++
	defer func() { h.dispatchDepth-- }()

	for _, ev := range events {
		h.listeners.notify(ev, func(sub Subscription, recovered any) {
			h.world.logger.Error("hierarchy listener failed",
				"subscription", uint64(sub), "event", ev.Kind.String(),
				"entity", uint64(ev.Entity), "panic", recovered)
		})
	}
}
