// Package asm implements the BSVM assembler: a preprocessor that
// resolves .include, a line normalizer, an expression evaluator, a
// label resolver with local-label scoping, a variable-length encoder,
// and the multi-pass fixpoint driver that ties them together.
package asm

import (
	"maps"

	"github.com/pkg/errors"

	"bsvm/isa"
)

// maxPasses bounds the fixpoint loop against pathological inputs that
// never converge (§4.7).
const maxPasses = 100

// loadAddr is where the assembled image is loaded and where PC resets
// to (§3, §0 of SPEC_FULL.md); byte 0 is reserved/unused.
const loadAddr uint32 = 1

// AssembleFiles reads and assembles the given source files, expanding
// .include directives along the way, and returns the raw little-endian
// bytecode image, zero-padded to a multiple of 4 bytes.
func AssembleFiles(files ...string) ([]byte, error) {
	raw, err := expandIncludes(files)
	if err != nil {
		return nil, err
	}
	return assembleLines(raw)
}

// AssembleSource assembles in-memory source lines as if they were one
// file named "<source>"; it does not support .include.
func AssembleSource(lines []string) ([]byte, error) {
	raw := make([]rawLine, len(lines))
	for i, l := range lines {
		raw[i] = rawLine{file: "<source>", no: i + 1, text: l}
	}
	return assembleLines(raw)
}

func assembleLines(raw []rawLine) ([]byte, error) {
	if len(raw) == 0 {
		return nil, errors.New("no source lines given")
	}

	labels := map[string]uint32{}
	var prevCode []byte

	for pass := 1; pass <= maxPasses; pass++ {
		code, newLabels, err := runPass(raw, labels, pass == 1)
		if err != nil {
			return nil, err
		}

		if pass > 1 && maps.Equal(labels, newLabels) && bytesEqual(code, prevCode) {
			return padTo4(code), nil
		}

		labels = newLabels
		prevCode = code
	}

	return nil, errors.Wrapf(errConvergence, "exceeded %d passes", maxPasses)
}

// runPass performs one full traversal of the normalized source,
// applying label/directive/encoder rules against the label table left
// over from the previous pass (empty on pass 1), per §4.7.
func runPass(raw []rawLine, prevLabels map[string]uint32, firstPass bool) ([]byte, map[string]uint32, error) {
	newLabels := map[string]uint32{}
	scope := ""
	addr := loadAddr
	var code []byte
	inBlock := false

	for _, rl := range raw {
		ln, nowInBlock, err := normalizeLine(rl.file, rl.no, rl.text, inBlock)
		inBlock = nowInBlock
		if err != nil {
			return nil, nil, err
		}

		ctx := evalContext{labels: prevLabels, scope: scope, addr: addr, firstPass: firstPass}

		switch ln.Kind {
		case Blank:
			// nothing

		case LabelDef:
			if err := defineLabel(newLabels, &scope, ln.Label, addr); err != nil {
				return nil, nil, atLine(rl.file, rl.no, err)
			}

		case Assignment:
			v, err := evalExpr(ctx, ln.AssignExpr)
			if err != nil {
				return nil, nil, atLine(rl.file, rl.no, err)
			}
			if err := defineAssignment(newLabels, ln.AssignName, v); err != nil {
				return nil, nil, atLine(rl.file, rl.no, err)
			}

		case Directive:
			bytes, err := encodeDirective(ctx, ln)
			if err != nil {
				return nil, nil, atLine(rl.file, rl.no, err)
			}
			code = append(code, bytes...)
			addr += uint32(len(bytes))

		case Instruction:
			op, ok := isa.Mnemonics[ln.Mnemonic]
			if !ok {
				return nil, nil, atLine(rl.file, rl.no, errors.Wrapf(errUnknownMnemonic, "%q", ln.Mnemonic))
			}
			bytes, err := encodeInstruction(ctx, op, ln.Operands, addr)
			if err != nil {
				return nil, nil, atLine(rl.file, rl.no, err)
			}
			code = append(code, bytes...)
			addr += uint32(len(bytes))
		}
	}

	if inBlock {
		last := raw[len(raw)-1]
		return nil, nil, atLine(last.file, last.no, errUnterminatedBlockComment)
	}

	return code, newLabels, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func padTo4(code []byte) []byte {
	if rem := len(code) % 4; rem != 0 {
		code = append(code, make([]byte, 4-rem)...)
	}
	return code
}
