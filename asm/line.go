package asm

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Kind classifies one normalized source line.
type Kind int

const (
	Blank Kind = iota
	LabelDef
	Assignment
	Directive
	Instruction
)

// Line is the normalized form of one raw source line: comments
// stripped, whitespace trimmed, classified per §4.1's recognition
// precedence (blank, label/assignment, directive, instruction).
type Line struct {
	Kind Kind
	File string
	No   int

	Label string // LabelDef

	AssignName string // Assignment
	AssignExpr string

	Directive string // Directive, without leading '.'
	Mnemonic  string // Instruction
	Operands  []string

	// Rest is the trimmed text following the directive/mnemonic
	// keyword, before generic whitespace/comma tokenization. Directive
	// handlers that need the raw text of a quoted string (.ascii,
	// .asciz) use this instead of Operands.
	Rest string
}

// stripComments removes ";" line comments and "/* */" block comments
// from one line, given whether a block comment was already open when
// this line started. It returns the remaining text and the updated
// open-block-comment state. When both a ";" and a "/*" appear on the
// same line, whichever starts first wins, per §4.1.
func stripComments(line string, inBlock bool) (string, bool) {
	var b strings.Builder
	i := 0
	n := len(line)
	for i < n {
		if inBlock {
			idx := strings.Index(line[i:], "*/")
			if idx < 0 {
				return b.String(), true
			}
			i += idx + 2
			inBlock = false
			continue
		}

		rest := line[i:]
		semi := strings.Index(rest, ";")
		blk := strings.Index(rest, "/*")

		if semi < 0 && blk < 0 {
			b.WriteString(rest)
			break
		}
		if blk < 0 || (semi >= 0 && semi < blk) {
			b.WriteString(rest[:semi])
			break
		}
		b.WriteString(rest[:blk])
		i += blk + 2
		inBlock = true
	}
	return b.String(), inBlock
}

// looksLikeAssignment reports whether line is a "NAME = EXPR" label
// assignment: exactly one '=' and no quote character anywhere on the
// line (so instruction/directive operands containing '=' inside a
// string literal are never mistaken for one).
func looksLikeAssignment(line string) (name, expr string, ok bool) {
	if strings.ContainsAny(line, "\"'") {
		return "", "", false
	}
	if strings.Count(line, "=") != 1 {
		return "", "", false
	}
	idx := strings.IndexByte(line, '=')
	name = strings.TrimSpace(line[:idx])
	expr = strings.TrimSpace(line[idx+1:])
	if name == "" || expr == "" {
		return "", "", false
	}
	if strings.ContainsFunc(name, unicode.IsSpace) {
		return "", "", false
	}
	return name, expr, true
}

// tokenize splits on whitespace then further splits each field on
// ',', discarding empty fragments, per §4.1.
func tokenize(rest string) []string {
	fields := strings.Fields(rest)
	toks := make([]string, 0, len(fields))
	for _, f := range fields {
		for _, p := range strings.Split(f, ",") {
			if p != "" {
				toks = append(toks, p)
			}
		}
	}
	return toks
}

// normalizeLine classifies one raw source line per §4.1's recognition
// precedence: blank, label/assignment, directive, instruction.
func normalizeLine(file string, no int, raw string, inBlock bool) (Line, bool, error) {
	stripped, inBlock := stripComments(raw, inBlock)
	text := strings.TrimSpace(stripped)

	ln := Line{File: file, No: no}

	switch {
	case text == "":
		ln.Kind = Blank

	case strings.HasSuffix(text, ":"):
		label := strings.TrimSuffix(text, ":")
		if label == "" || strings.ContainsFunc(label, unicode.IsSpace) || strings.Contains(label, "@") {
			return ln, inBlock, atLine(file, no, errors.Wrapf(errBadLabel, "%q", text))
		}
		ln.Kind = LabelDef
		ln.Label = label

	default:
		if name, expr, ok := looksLikeAssignment(text); ok {
			if strings.ContainsFunc(name, unicode.IsSpace) || strings.Contains(name, "@") {
				return ln, inBlock, atLine(file, no, errors.Wrapf(errBadAssignment, "%q", text))
			}
			ln.Kind = Assignment
			ln.AssignName = name
			ln.AssignExpr = expr
		} else if strings.HasPrefix(text, ".") {
			fields := strings.SplitN(text[1:], " ", 2)
			ln.Kind = Directive
			ln.Directive = strings.ToLower(strings.TrimSpace(fields[0]))
			if len(fields) > 1 {
				ln.Rest = strings.TrimSpace(fields[1])
			}
			ln.Operands = tokenize(ln.Rest)
		} else {
			fields := strings.SplitN(text, " ", 2)
			ln.Kind = Instruction
			ln.Mnemonic = strings.ToUpper(strings.TrimSpace(fields[0]))
			if len(fields) > 1 {
				ln.Rest = strings.TrimSpace(fields[1])
			}
			ln.Operands = tokenize(ln.Rest)
		}
	}

	return ln, inBlock, nil
}
