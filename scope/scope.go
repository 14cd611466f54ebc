// Package scope implements the lexically scoped symbol table shared by
// every statement of a session. Bindings are tagged with the depth they
// were created at; leaving a scope pops that depth's bindings in reverse
// order and restores whatever each one shadowed.
package scope

// binding records the previously active binding index for the same name,
// which makes both shadowing and restoring O(1).
type binding[V any] struct {
	name  string
	value V
	depth int
	outer int // index of the shadowed binding, or -1
}

// Table maps names to values of type V. The zero value is not usable;
// call NewTable.
type Table[V any] struct {
	depth    int
	bindings []binding[V]
	active   map[string]int
}

func NewTable[V any]() *Table[V] {
	return &Table[V]{active: make(map[string]int)}
}

func (t *Table[V]) Enter() {
	t.depth++
}

// Leave pops every binding created at the current depth. Calling Leave
// at depth 0 is a contract violation by the caller, not a user error.
func (t *Table[V]) Leave() {
	if t.depth == 0 {
		panic("scope: Leave without matching Enter")
	}

	for len(t.bindings) > 0 {
		last := t.bindings[len(t.bindings)-1]
		if last.depth != t.depth {
			break
		}

		if last.outer != -1 {
			t.active[last.name] = last.outer
		} else {
			delete(t.active, last.name)
		}

		t.bindings = t.bindings[:len(t.bindings)-1]
	}
	t.depth--
}

// Define makes value the innermost binding for name at the current depth.
func (t *Table[V]) Define(name string, value V) {
	outer := -1
	if idx, ok := t.active[name]; ok {
		outer = idx
	}

	t.active[name] = len(t.bindings)
	t.bindings = append(t.bindings, binding[V]{name: name, value: value, depth: t.depth, outer: outer})
}

// Lookup returns the innermost live binding for name.
func (t *Table[V]) Lookup(name string) (V, bool) {
	if idx, ok := t.active[name]; ok {
		return t.bindings[idx].value, true
	}

	var zero V

	return zero, false
}

// Depth returns the current nesting depth; useful for asserting balanced
// Enter/Leave pairs in tests.
func (t *Table[V]) Depth() int {
	return t.depth
}
