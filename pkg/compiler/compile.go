package compiler

import "fmt"

// Options configures one Compile call: which dialect mode to lex in, the
// include search path for import/#include resolution, and whether to
// collect a verbose trace of tokens and recognized constructs.
type Options struct {
	PythonMode   bool
	IncludePaths []string
	Verbose      bool
}

// Result carries everything a caller of Compile might want: the final
// artifact bytes, the symbol table (for -v dumps), and the verbose trace,
// if requested.
type Result struct {
	Artifact []byte
	Symbols  *SymbolTable
	Tokens   []Token
	Trace    []string
}

// Compile runs the full pipeline — preprocess, lex, parse/emit, wrap in a
// CASM artifact — over src located at baseDir. Each stage's error is
// wrapped with the stage name before being returned, matching the
// teacher's compile.go staged-error style.
func Compile(src, baseDir string, opts Options) (*Result, error) {
	pre, err := Preprocess(src, baseDir, opts.IncludePaths)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}

	toks, err := Lex(pre, opts.PythonMode)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}

	syms := NewSymbolTable()
	e := NewEmitter(toks, syms)
	if opts.Verbose {
		e.EnableTrace()
	}
	body, trace, err := EmitWith(e)
	if err != nil {
		return nil, fmt.Errorf("emit: %w", err)
	}

	return &Result{
		Artifact: BuildArtifact(body),
		Symbols:  syms,
		Tokens:   toks,
		Trace:    trace,
	}, nil
}
