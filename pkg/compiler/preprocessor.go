package compiler

import (
	"os"
	"path/filepath"
	"strings"
)

// Macro is one #define: object-like macros have a nil Params, function-like
// macros substitute Params into Body before Body is re-expanded against the
// global define table. Mirrors the teacher's preprocessor.go Macro type.
type Macro struct {
	Params []string
	Body   string
}

// stdlibElisions are import/#include targets the original source silently
// drops rather than resolving on disk, since the target VM provides them as
// intrinsics (math.*, time.*, the container syscalls) rather than as files.
var stdlibElisions = map[string]bool{
	"math": true, "math.h": true, "cmath": true,
	"sys": true, "stdlib.h": true, "cstdlib": true,
	"time": true, "time.h": true, "ctime": true,
	"iostream": true, "stdio.h": true,
	"vector": true, "string": true, "map": true,
}

// candidateSuffixes is the resolution order tried for an unresolved import
// or #include target that isn't a stdlib elision. Longer than the original
// source's six candidates: spec.md's distillation widened this to cover the
// C++ header spellings and a bare extensionless file, and that widening is
// authoritative here (see design notes).
var candidateSuffixes = []string{
	"/__init__.soul", "/__init__.py",
	".soul", ".py", ".h", ".c", ".cpp", ".hpp", ".cc", ".hh", "",
}

type preprocessState struct {
	defines  map[string]Macro
	included map[string]bool
}

// Preprocess expands #define, import, and #include directives starting
// from src located in baseDir, searching extraIncludePaths in addition to
// baseDir, ".", and the conventional package directories. The returned
// string has every resolvable import/#include inlined (import expansions
// wrapped in __module__/__endmodule__ markers) and every #define expanded.
func Preprocess(src, baseDir string, extraIncludePaths []string) (string, error) {
	st := &preprocessState{
		defines:  make(map[string]Macro),
		included: make(map[string]bool),
	}
	return st.run(src, baseDir, extraIncludePaths)
}

func (st *preprocessState) run(src, dir string, extraPaths []string) (string, error) {
	lines := strings.Split(src, "\n")
	var out strings.Builder

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "#define") {
			st.parseDefine(trimmed)
			continue
		}

		if mod, as, isFrom := parseImportLine(trimmed); mod != "" {
			_ = as
			_ = isFrom
			if stdlibElisions[mod] {
				continue
			}
			path := st.resolve(mod, dir, extraPaths)
			if path == "" {
				continue // unresolved import: silently dropped, matching original
			}
			if st.included[path] {
				continue // idempotent: already inlined once
			}
			st.included[path] = true
			body, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			expanded, err := st.run(string(body), filepath.Dir(path), extraPaths)
			if err != nil {
				return "", err
			}
			out.WriteString("__module__ " + mod + "\n")
			out.WriteString(expanded)
			out.WriteString("\n__endmodule__\n")
			continue
		}

		if target, ok := parseIncludeLine(trimmed); ok {
			if stdlibElisions[target] {
				continue
			}
			path := st.resolve(target, dir, extraPaths)
			if path == "" {
				out.WriteString("// " + line + "\n")
				continue
			}
			if st.included[path] {
				out.WriteString("// Skipped " + path + "\n")
				continue
			}
			st.included[path] = true
			body, err := os.ReadFile(path)
			if err != nil {
				out.WriteString("// " + line + "\n")
				continue
			}
			expanded, err := st.run(string(body), filepath.Dir(path), extraPaths)
			if err != nil {
				return "", err
			}
			out.WriteString(expanded)
			out.WriteString("\n")
			continue
		}

		out.WriteString(st.applyDefines(line))
		out.WriteString("\n")
	}

	return out.String(), nil
}

// parseImportLine recognizes "import NAME", "import NAME as ALIAS", and
// "from NAME import ...". Returns an empty mod when line isn't an import.
func parseImportLine(line string) (mod string, alias string, isFrom bool) {
	switch {
	case strings.HasPrefix(line, "from "):
		rest := strings.TrimPrefix(line, "from ")
		parts := strings.SplitN(rest, " import ", 2)
		if len(parts) != 2 {
			return "", "", false
		}
		return strings.TrimSpace(parts[0]), "", true
	case strings.HasPrefix(line, "import "):
		rest := strings.TrimPrefix(line, "import ")
		rest = strings.TrimSpace(rest)
		if idx := strings.Index(rest, " as "); idx >= 0 {
			return strings.TrimSpace(rest[:idx]), strings.TrimSpace(rest[idx+4:]), false
		}
		if idx := strings.Index(rest, ";"); idx >= 0 {
			rest = rest[:idx]
		}
		return strings.TrimSpace(rest), "", false
	}
	return "", "", false
}

// parseIncludeLine extracts the target between the first '<' or '"' and the
// last '>' or '"' of a #include line.
func parseIncludeLine(line string) (string, bool) {
	if !strings.HasPrefix(line, "#include") {
		return "", false
	}
	start := strings.IndexAny(line, "<\"")
	end := strings.LastIndexAny(line, ">\"")
	if start < 0 || end <= start {
		return "", false
	}
	return line[start+1 : end], true
}

// resolve tries every search directory × candidate suffix combination and
// returns the first path that exists on disk, or "" if none does.
func (st *preprocessState) resolve(name, currentDir string, extraPaths []string) string {
	searchDirs := []string{currentDir, "."}
	searchDirs = append(searchDirs, extraPaths...)

	if strings.Contains(name, ".") {
		for _, dir := range searchDirs {
			p := filepath.Join(dir, name)
			if fileExists(p) {
				return p
			}
		}
		return ""
	}

	for _, dir := range searchDirs {
		for _, suf := range candidateSuffixes {
			p := filepath.Join(dir, name+suf)
			if fileExists(p) {
				return p
			}
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (st *preprocessState) parseDefine(line string) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "#define"))
	if rest == "" {
		return
	}
	nameEnd := 0
	for nameEnd < len(rest) && isIdentPart(rune(rest[nameEnd])) {
		nameEnd++
	}
	name := rest[:nameEnd]
	rest = rest[nameEnd:]

	if strings.HasPrefix(rest, "(") {
		close := strings.IndexByte(rest, ')')
		if close < 0 {
			return
		}
		paramList := rest[1:close]
		var params []string
		for _, p := range strings.Split(paramList, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				params = append(params, p)
			}
		}
		body := strings.TrimSpace(rest[close+1:])
		st.defines[name] = Macro{Params: params, Body: body}
		return
	}

	st.defines[name] = Macro{Body: strings.TrimSpace(rest)}
}

// applyDefines expands every macro reference in line, skipping identifier
// occurrences inside string/char literals so a define named the same as
// text inside a literal is left untouched. Function-like macros substitute
// their arguments into the macro body in one pass (to avoid one argument's
// expansion bleeding into another's placeholder), then the result is
// re-scanned once more against the global define table, matching the
// teacher's two-pass applyDefines.
func (st *preprocessState) applyDefines(line string) string {
	if len(st.defines) == 0 {
		return line
	}
	expanded := st.substituteIdentifiers(line, st.defines, nil)
	return st.substituteIdentifiers(expanded, st.defines, nil)
}

func (st *preprocessState) substituteIdentifiers(line string, defines map[string]Macro, args map[string]string) string {
	var out strings.Builder
	i := 0
	for i < len(line) {
		c := line[i]
		if c == '"' || c == '\'' {
			quote := c
			out.WriteByte(c)
			i++
			for i < len(line) && line[i] != quote {
				if line[i] == '\\' && i+1 < len(line) {
					out.WriteByte(line[i])
					i++
				}
				out.WriteByte(line[i])
				i++
			}
			if i < len(line) {
				out.WriteByte(line[i])
				i++
			}
			continue
		}
		if isIdentStart(rune(c)) {
			start := i
			for i < len(line) && isIdentPart(rune(line[i])) {
				i++
			}
			word := line[start:i]

			if args != nil {
				if val, ok := args[word]; ok {
					out.WriteString(val)
					continue
				}
			}
			if m, ok := defines[word]; ok {
				if m.Params == nil {
					out.WriteString(m.Body)
					continue
				}
				// function-like macro: expect a following "(args)"
				j := i
				for j < len(line) && (line[j] == ' ' || line[j] == '\t') {
					j++
				}
				if j < len(line) && line[j] == '(' {
					close := matchingParen(line, j)
					if close > j {
						callArgs := splitTopLevel(line[j+1 : close])
						argMap := make(map[string]string)
						for k, p := range m.Params {
							if k < len(callArgs) {
								argMap[p] = strings.TrimSpace(callArgs[k])
							}
						}
						out.WriteString(st.substituteIdentifiers(m.Body, defines, argMap))
						i = close + 1
						continue
					}
				}
				out.WriteString(word)
				continue
			}
			out.WriteString(word)
			continue
		}
		out.WriteByte(c)
		i++
	}
	return out.String()
}

func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
