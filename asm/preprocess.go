package asm

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// rawLine is one physical source line tagged with the file it came
// from, for error reporting and for local-label/debug purposes.
type rawLine struct {
	file string
	no   int
	text string
}

// readLines reads a file into rawLine records relative to its own path.
func readLines(path string) ([]rawLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var lines []rawLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	no := 0
	for scanner.Scan() {
		no++
		lines = append(lines, rawLine{file: path, no: no, text: scanner.Text()})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return lines, nil
}

// expandIncludes resolves ".include \"PATH\"" recursively, substituting
// the included file's lines in place. Paths are resolved relative to
// the including file's directory (§4.2). An include stack of resolved
// absolute paths guards against cycles, which spec.md leaves
// unspecified (§9 Open Question; SPEC_FULL.md §0 commits to rejecting
// them).
func expandIncludes(entryFiles []string) ([]rawLine, error) {
	var out []rawLine
	stack := map[string]bool{}

	var expand func(path string) error
	expand = func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return errors.Wrapf(err, "resolve %s", path)
		}
		if stack[abs] {
			return errors.Wrapf(errIncludeCycle, "%s", path)
		}
		stack[abs] = true
		defer delete(stack, abs)

		lines, err := readLines(path)
		if err != nil {
			return err
		}

		dir := filepath.Dir(path)
		inBlock := false
		for _, rl := range lines {
			stripped, nowInBlock := stripComments(rl.text, inBlock)
			inBlock = nowInBlock
			trimmed := strings.TrimSpace(stripped)

			if inc, ok := parseIncludeDirective(trimmed); ok {
				incPath := inc
				if !filepath.IsAbs(incPath) {
					incPath = filepath.Join(dir, incPath)
				}
				if err := expand(incPath); err != nil {
					return errors.Wrapf(err, "%s:%d", rl.file, rl.no)
				}
				continue
			}

			out = append(out, rl)
		}
		if inBlock && len(lines) > 0 {
			return atLine(path, lines[len(lines)-1].no, errUnterminatedBlockComment)
		}
		return nil
	}

	for _, f := range entryFiles {
		if err := expand(f); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// parseIncludeDirective recognizes ".include \"PATH\"" on an
// already-comment-stripped, trimmed line.
func parseIncludeDirective(line string) (path string, ok bool) {
	if !strings.HasPrefix(line, ".include") {
		return "", false
	}
	rest := strings.TrimSpace(line[len(".include"):])
	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return "", false
	}
	return rest[1 : len(rest)-1], true
}
