// Package ident implements the process-wide identifier table.
//
// An identifier table interns method, variable, constant, and symbol names
// to compact integer handles so the rest of the runtime — the code
// generator, the bytecode, and the VM's dispatch path — never has to carry
// or compare strings at execution time. This mirrors the constant-pool
// idea in smog's pkg/bytecode (literals referenced by index instead of
// embedded inline), specialized to names rather than arbitrary literals.
package ident

// ID is an opaque handle into a Table. It is bijective with the interned
// string it names: the same name always maps to the same ID for the
// lifetime of the Table, and IDs are never reused.
type ID uint32

// Nil is the zero ID. A Table gives it to the first name interned into
// it; internal/globals.New interns the empty string first, so within a
// Globals no class, constant, method or variable name has this ID and it
// serves as the "no identifier" value (ast.ClassDef.Super,
// globals.MethodInfo.ClassSuper).
const Nil ID = 0

// Table interns strings to IDs and back. It grows monotonically and is
// not safe for concurrent use — the runtime this package supports is
// single-threaded (spec §5).
type Table struct {
	names []string
	ids   map[string]ID
}

// New returns an empty Table.
func New() *Table {
	return &Table{
		ids: make(map[string]ID),
	}
}

// Intern returns the ID for name, interning it if this is the first time
// the table has seen it.
func (t *Table) Intern(name string) ID {
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := ID(len(t.names))
	t.names = append(t.names, name)
	t.ids[name] = id
	return id
}

// Lookup returns the ID already assigned to name, if any, without
// interning it.
func (t *Table) Lookup(name string) (ID, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// Name returns the interned string for id. It panics if id was never
// produced by this Table — that indicates an internal invariant
// violation (an ID manufactured out of thin air), not a recoverable
// runtime condition.
func (t *Table) Name(id ID) string {
	if int(id) >= len(t.names) {
		panic("ident: unknown identifier id")
	}
	return t.names[id]
}

// Len reports how many distinct identifiers have been interned.
func (t *Table) Len() int {
	return len(t.names)
}
