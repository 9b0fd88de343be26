// Command soulc compiles a blended C/C++/Python source file into a
// CASM-tagged bytecode artifact for the companion VM.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	env "github.com/xyproto/env/v2"

	"soulc/internal/watch"
	"soulc/pkg/compiler"
	"soulc/pkg/utils"
)

// includePathList collects repeated -I flags into an ordered slice, the
// same shape flag.Var expects for a multi-valued flag.
type includePathList []string

func (l *includePathList) String() string { return strings.Join(*l, ",") }
func (l *includePathList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var includes includePathList
	flag.Var(&includes, "I", "additional include/import search path (repeatable)")
	outPath := flag.String("o", "", "output artifact path (default: input with .casm extension)")
	verbose := flag.Bool("v", false, "print a trace of recognized tokens and constructs")
	pythonFlag := flag.Bool("python", false, "force Python-mode (indentation) lexing")
	cppFlag := flag.Bool("cpp", false, "force brace-mode lexing")
	watchFlag := flag.Bool("watch", false, "recompile whenever the input (or anything it pulled in) changes")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: soulc [-I path]... [-o out.casm] [-v] [-python|-cpp] [-watch] <input>")
		os.Exit(2)
	}
	if *pythonFlag && *cppFlag {
		fmt.Fprintln(os.Stderr, "use either -python or -cpp, not both")
		os.Exit(2)
	}

	inPath := flag.Arg(0)
	output := *outPath
	if output == "" {
		output = defaultOutputPath(inPath)
	}

	pythonMode := inferPythonMode(inPath, *pythonFlag, *cppFlag)
	includePaths := append(defaultIncludePaths(), includes...)

	compileOnce := func() bool {
		result, err := compileFile(inPath, pythonMode, includePaths, *verbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "compilation failed: %v\n", err)
			return false
		}
		if err := os.WriteFile(output, result.Artifact, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write artifact %q: %v\n", output, err)
			return false
		}
		fmt.Printf("compiled %d bytes -> %s\n", len(result.Artifact), output)
		return true
	}

	ok := compileOnce()
	if !*watchFlag {
		if !ok {
			os.Exit(1)
		}
		return
	}

	w, err := watch.New(func(string) { compileOnce() })
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start watcher: %v\n", err)
		os.Exit(1)
	}
	defer w.Close()
	if err := w.Add(inPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to watch %q: %v\n", inPath, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "watching %s for changes (ctrl-c to stop)\n", inPath)
	w.Run()
}

func compileFile(inPath string, pythonMode bool, includePaths []string, verbose bool) (*compiler.Result, error) {
	source, err := os.ReadFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	_, baseDir, err := utils.GetPathInfo(inPath)
	if err != nil {
		return nil, fmt.Errorf("resolve input path: %w", err)
	}
	result, err := compiler.Compile(string(source), baseDir, compiler.Options{
		PythonMode:   pythonMode,
		IncludePaths: includePaths,
		Verbose:      verbose,
	})
	if err != nil {
		return nil, err
	}
	if verbose {
		for _, line := range result.Trace {
			fmt.Fprintln(os.Stderr, line)
		}
	}
	return result, nil
}

func inferPythonMode(inPath string, forcePython, forceCpp bool) bool {
	if forcePython {
		return true
	}
	if forceCpp {
		return false
	}
	switch filepath.Ext(inPath) {
	case ".py", ".soul":
		return true
	default:
		return false
	}
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".casm"
	}
	return strings.TrimSuffix(inPath, ext) + ".casm"
}

// defaultIncludePaths assembles the environment-derived search path prefix,
// mirroring the original compiler's getenv("C_INCLUDE_PATH") /
// getenv("SOUL_PACKAGES") lookups, read here through xyproto/env's typed
// getters instead of raw os.Getenv.
func defaultIncludePaths() []string {
	var paths []string
	for _, v := range []string{
		env.Str("SOULC_INCLUDE_PATH", ""),
		env.Str("SOULC_PACKAGES", ""),
		env.Str("C_INCLUDE_PATH", ""),
	} {
		if v == "" {
			continue
		}
		paths = append(paths, strings.Split(v, string(os.PathListSeparator))...)
	}
	return paths
}
