package compiler

import "strings"

// SymbolTable tracks every mangled name this compilation unit has defined
// and the bytecode offset its definition starts at. Unlike the teacher's
// frame-pointer/locals-stack symbol table, this compiler never allocates
// stack slots: every STORE/LOAD operates directly on a named global-ish
// cell addressed by its mangled name, matching the target VM's model.
type SymbolTable struct {
	offsets map[string]int
	order   []string

	modules []string // prefix stack, pushed/popped by __module__/__endmodule__
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{offsets: make(map[string]int)}
}

// PushModule enters a module scope: every mangled name produced while the
// prefix stack is non-empty is prefixed with the dotted join of all active
// module names, innermost last.
func (s *SymbolTable) PushModule(name string) {
	s.modules = append(s.modules, name)
}

// PopModule leaves the innermost module scope. A pop with no matching push
// is a no-op: the preprocessor guarantees balanced __module__/__endmodule__
// markers, but emission never trusts that blindly.
func (s *SymbolTable) PopModule() {
	if len(s.modules) > 0 {
		s.modules = s.modules[:len(s.modules)-1]
	}
}

// Mangle returns name prefixed by the current module stack, matching the
// original compiler's mangle(): modulePrefix + name when inside a module,
// name unchanged at top level.
func (s *SymbolTable) Mangle(name string) string {
	if len(s.modules) == 0 {
		return name
	}
	return strings.Join(s.modules, ".") + "." + name
}

// Define records that mangled name begins at the given bytecode offset.
// Redefinition overwrites the prior offset, matching a source file that
// reassigns the same name at top level (the last definition wins, same as
// an ordinary STORE would).
func (s *SymbolTable) Define(mangledName string, offset int) {
	if _, exists := s.offsets[mangledName]; !exists {
		s.order = append(s.order, mangledName)
	}
	s.offsets[mangledName] = offset
}

func (s *SymbolTable) Lookup(mangledName string) (int, bool) {
	off, ok := s.offsets[mangledName]
	return off, ok
}

// Names returns every defined mangled name in definition order, useful for
// the verbose trace mode and for locating the program entry point.
func (s *SymbolTable) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
