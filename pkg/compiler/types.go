package compiler

import "strings"

// FieldInfo describes one member of a built-in aggregate type, at a fixed
// byte offset from the start of the aggregate.
type FieldInfo struct {
	Name   string
	Offset int
}

// TypeInfo is a minimal type descriptor: just enough for sizeof and for
// resolving brace-initializer field offsets. There is no user-defined type
// checking in this compiler; struct/class/union bodies are parsed for their
// braces and skipped, not modeled here.
type TypeInfo struct {
	Name      string
	Size      int
	IsPointer bool
	Fields    []FieldInfo
}

// builtinTypes seeds the same base type table as the original compiler:
// every built-in name sizeof() and brace-initializers need to know about.
// User struct/class declarations do not extend this table; their field
// layout is never needed because this compiler does not allocate storage
// for aggregates beyond the named built-ins below.
var builtinTypes = map[string]TypeInfo{
	"int":      {Name: "int", Size: 4},
	"char":     {Name: "char", Size: 1},
	"void":     {Name: "void", Size: 0},
	"FILE":     {Name: "FILE", Size: 4, IsPointer: true},
	"const":    {Name: "const", Size: 0},
	"size_t":   {Name: "size_t", Size: 4},
	"string":   {Name: "string", Size: 4},
	"Task":     {Name: "Task", Size: 0},
	"var":      {Name: "var", Size: 0},
	"bool":     {Name: "bool", Size: 1},
	"_Bool":    {Name: "_Bool", Size: 1},
	"double":   {Name: "double", Size: 8},
	"float":    {Name: "float", Size: 4},
	"time_t":   {Name: "time_t", Size: 4},
	"short":    {Name: "short", Size: 2},
	"long":     {Name: "long", Size: 4},
	"signed":   {Name: "signed", Size: 4},
	"unsigned": {Name: "unsigned", Size: 4},
	"wchar_t":  {Name: "wchar_t", Size: 2},
	"char8_t":  {Name: "char8_t", Size: 1},
	"char16_t": {Name: "char16_t", Size: 2},
	"char32_t": {Name: "char32_t", Size: 4},
	"Color":    {Name: "Color", Size: 4},
	"set":      {Name: "set", Size: 4, IsPointer: true},
	"dict":     {Name: "dict", Size: 4, IsPointer: true},
	"deque":    {Name: "deque", Size: 4, IsPointer: true},
	"queue":    {Name: "queue", Size: 4, IsPointer: true},
	"heap":     {Name: "heap", Size: 4, IsPointer: true},
	"tuple":    {Name: "tuple", Size: 4, IsPointer: true},
	"Point": {
		Name: "Point", Size: 8,
		Fields: []FieldInfo{{"x", 0}, {"y", 4}},
	},
	"IntFloat": {
		Name: "IntFloat", Size: 4,
		Fields: []FieldInfo{{"i", 0}, {"f", 0}},
	},
}

// typeSize mirrors getTypeSize's substring heuristics: a multi-word type
// name ("unsigned long long int") is looked up by the specifier that
// dominates its size, falling back to a plain 4-byte word.
func typeSize(name string) int {
	if t, ok := builtinTypes[name]; ok {
		return t.Size
	}
	switch {
	case strings.Contains(name, "double"):
		return 8
	case strings.Contains(name, "float"):
		return 4
	case strings.Contains(name, "short"):
		return 2
	case strings.Contains(name, "long"):
		return 4
	case strings.Contains(name, "char32"):
		return 4
	case strings.Contains(name, "char16"):
		return 2
	case strings.Contains(name, "char"):
		return 1
	case strings.Contains(name, "wchar"):
		return 2
	case strings.Contains(name, "unsigned"), strings.Contains(name, "signed"), strings.Contains(name, "int"):
		return 4
	default:
		return 4
	}
}
