package ecs

import (
	"reflect"
	"slices"
	"strings"
)

// TypeOf returns the component kind of T, for building conditions.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Condition describes which entities a System works on. It is an immutable
// value: every builder method returns a modified copy.
//
//	cond := ecs.Match().
//		All(ecs.TypeOf[Position](), ecs.TypeOf[Velocity]()).
//		None(ecs.TypeOf[Frozen]())
type Condition struct {
	all    []reflect.Type
	any    []reflect.Type
	none   []reflect.Type
	tag    string
	name   string
	single reflect.Type
}

// Match returns the empty condition, which matches every entity.
func Match() Condition {
	return Condition{}
}

// All requires every listed kind.
func (c Condition) All(types ...reflect.Type) Condition {
	c.all = append(slices.Clone(c.all), types...)
	return c
}

// Any requires at least one listed kind.
func (c Condition) Any(types ...reflect.Type) Condition {
	c.any = append(slices.Clone(c.any), types...)
	return c
}

// None excludes entities holding any listed kind.
func (c Condition) None(types ...reflect.Type) Condition {
	c.none = append(slices.Clone(c.none), types...)
	return c
}

// WithTag requires an exact tag match.
func (c Condition) WithTag(tag string) Condition {
	c.tag = tag
	return c
}

// WithName requires an exact name match.
func (c Condition) WithName(name string) Condition {
	c.name = name
	return c
}

// Single requires the presence of one kind.
func (c Condition) Single(t reflect.Type) Condition {
	c.single = t
	return c
}

// IsEmpty reports whether the condition has no clauses.
func (c Condition) IsEmpty() bool {
	return c.clauseCount() == 0
}

func (c Condition) clauseCount() int {
	n := 0
	if c.tag != "" {
		n++
	}
	if c.name != "" {
		n++
	}
	if c.single != nil {
		n++
	}
	if len(c.all) > 0 {
		n++
	}
	if len(c.any) > 0 {
		n++
	}
	if len(c.none) > 0 {
		n++
	}
	return n
}

func (c Condition) String() string {
	if c.IsEmpty() {
		return "match(*)"
	}
	var parts []string
	if c.tag != "" {
		parts = append(parts, "tag="+c.tag)
	}
	if c.name != "" {
		parts = append(parts, "name="+c.name)
	}
	if c.single != nil {
		parts = append(parts, "single="+c.single.String())
	}
	join := func(label string, types []reflect.Type) {
		if len(types) == 0 {
			return
		}
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = t.String()
		}
		parts = append(parts, label+"["+strings.Join(names, ",")+"]")
	}
	join("all", c.all)
	join("any", c.any)
	join("none", c.none)
	return "match(" + strings.Join(parts, " ") + ")"
}

// compiledCondition is a Condition resolved against one registry.
type compiledCondition struct {
	cond      Condition
	all       Mask
	allOK     bool
	any       Mask
	none      Mask
	single    ComponentID
	singleOK  bool
	allIDs    []ComponentID
	anyIDs    []ComponentID
	noneIDs   []ComponentID
	hasAll    bool
	hasAny    bool
	hasNone   bool
	hasSingle bool
	hasTag    bool
	hasName   bool
	clauses   int
}

// compile resolves kinds to bits. Unregistered kinds in All or Single make
// the clause unsatisfiable; in Any or None they are ignored.
func (c Condition) compile(r *ComponentRegistry) compiledCondition {
	cc := compiledCondition{
		cond:      c,
		all:       r.NewMask(),
		any:       r.NewMask(),
		none:      r.NewMask(),
		allOK:     true,
		hasAll:    len(c.all) > 0,
		hasAny:    len(c.any) > 0,
		hasNone:   len(c.none) > 0,
		hasSingle: c.single != nil,
		hasTag:    c.tag != "",
		hasName:   c.name != "",
		clauses:   c.clauseCount(),
	}
	for _, t := range c.all {
		if id, ok := r.ID(t); ok {
			cc.all.Set(id)
			cc.allIDs = append(cc.allIDs, id)
		} else {
			cc.allOK = false
		}
	}
	for _, t := range c.any {
		if id, ok := r.ID(t); ok {
			cc.any.Set(id)
			cc.anyIDs = append(cc.anyIDs, id)
		}
	}
	for _, t := range c.none {
		if id, ok := r.ID(t); ok {
			cc.none.Set(id)
			cc.noneIDs = append(cc.noneIDs, id)
		}
	}
	if c.single != nil {
		cc.single, cc.singleOK = r.ID(c.single)
	}
	return cc
}

// matches evaluates every clause against one entity record.
func (cc *compiledCondition) matches(e *Entity) bool {
	if cc.hasTag && e.tag != cc.cond.tag {
		return false
	}
	if cc.hasName && e.name != cc.cond.name {
		return false
	}
	if cc.hasSingle && (!cc.singleOK || !e.mask.Has(cc.single)) {
		return false
	}
	if cc.hasAll && (!cc.allOK || !e.mask.ContainsAll(cc.all)) {
		return false
	}
	if cc.hasAny && !e.mask.Intersects(cc.any) {
		return false
	}
	if cc.hasNone && e.mask.Intersects(cc.none) {
		return false
	}
	return true
}
