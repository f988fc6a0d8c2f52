package asm

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// evalContext is the state the evaluator needs: the label table built
// so far, the scope used to mangle local (N$) references, the address
// of the current instruction/datum (what '*' denotes), and whether
// this is pass 1 (unresolved identifiers are tolerated, §4.3).
type evalContext struct {
	labels    map[string]uint32
	scope     string
	addr      uint32
	firstPass bool
}

// firstPassPlaceholder is substituted for any identifier that can't be
// resolved yet during pass 1, chosen large enough that any PC-relative
// range check conservatively fails and forces another pass (§4.3).
const firstPassPlaceholder uint32 = 1<<31 - 1

// evalExpr evaluates a "+"/"-" additive chain of terms: integer
// literals (decimal/hex/binary), '*' (address of the current
// instruction/datum), or a label identifier (local N$ mangled with
// the current scope first). No operator precedence, parentheses, or
// */÷ — intentionally minimal, per §9.
func evalExpr(ctx evalContext, expr string) (uint32, error) {
	expr = strings.ReplaceAll(expr, "#", "")
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, errors.New("empty expression")
	}

	terms, ops, err := splitAdditiveChain(expr)
	if err != nil {
		return 0, err
	}

	var total int64
	for i, term := range terms {
		v, err := evalTerm(ctx, term)
		if err != nil {
			return 0, err
		}
		if i == 0 {
			total = int64(int32(v))
			continue
		}
		if ops[i-1] == '+' {
			total += int64(int32(v))
		} else {
			total -= int64(int32(v))
		}
	}
	return uint32(int32(total)), nil
}

// splitAdditiveChain splits "a + b - c" into terms ["a","b","c"] and
// operators ['+','-'], left-associative, tolerating a leading unary
// sign on the first term.
func splitAdditiveChain(expr string) (terms []string, ops []byte, err error) {
	var cur strings.Builder
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if (c == '+' || c == '-') && cur.Len() > 0 {
			terms = append(terms, strings.TrimSpace(cur.String()))
			ops = append(ops, c)
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	terms = append(terms, strings.TrimSpace(cur.String()))
	for _, t := range terms {
		if t == "" {
			return nil, nil, errors.Errorf("malformed expression: %q", expr)
		}
	}
	return terms, ops, nil
}

func evalTerm(ctx evalContext, term string) (uint32, error) {
	if term == "*" {
		return ctx.addr, nil
	}

	// Leading unary minus applied to whatever follows (literal or ident).
	if strings.HasPrefix(term, "-") {
		v, err := evalTerm(ctx, term[1:])
		if err != nil {
			return 0, err
		}
		return uint32(-int32(v)), nil
	}

	if v, ok, err := parseCharLiteral(term); ok || err != nil {
		return v, err
	}

	if v, ok, err := parseIntLiteral(term); ok || err != nil {
		return v, err
	}

	return resolveIdentifier(ctx, term)
}

// parseCharLiteral parses a single-quoted character literal like 'A'.
func parseCharLiteral(term string) (v uint32, ok bool, err error) {
	if !strings.HasPrefix(term, "'") {
		return 0, false, nil
	}
	runes := []rune(term)
	if len(runes) != 3 || runes[0] != '\'' || runes[2] != '\'' {
		return 0, true, errors.Errorf("malformed character literal %q", term)
	}
	return uint32(runes[1]), true, nil
}

// parseIntLiteral parses decimal, 0x hex, and 0b binary integer
// literals. ok is false when term isn't shaped like a literal at all
// (so the caller falls through to identifier resolution).
func parseIntLiteral(term string) (v uint32, ok bool, err error) {
	if term == "" {
		return 0, false, nil
	}
	c := term[0]
	if c != '-' && !(c >= '0' && c <= '9') {
		return 0, false, nil
	}

	base := 10
	digits := term
	switch {
	case strings.HasPrefix(term, "0x") || strings.HasPrefix(term, "0X"):
		base = 16
		digits = term[2:]
	case strings.HasPrefix(term, "0b") || strings.HasPrefix(term, "0B"):
		base = 2
		digits = term[2:]
	}

	n, perr := strconv.ParseUint(digits, base, 64)
	if perr != nil {
		if base == 10 {
			// Not a valid decimal literal either - treat as identifier.
			return 0, false, nil
		}
		return 0, true, errors.Wrapf(perr, "bad integer literal %q", term)
	}
	return uint32(n), true, nil
}

// resolveIdentifier mangles local (N$) references with the current
// scope and looks the result up in the label table. Per §4.3, an
// unresolved identifier during pass 1 yields a conservative
// placeholder; in later passes it's fatal.
func resolveIdentifier(ctx evalContext, name string) (uint32, error) {
	lookup := name
	if isLocalLabelRef(name) {
		if ctx.scope == "" {
			return 0, errors.Wrapf(errLocalLabelNoScope, "%q", name)
		}
		lookup = mangleLocal(ctx.scope, strings.TrimSuffix(name, "$"))
	}

	if v, ok := ctx.labels[lookup]; ok {
		return v, nil
	}
	if ctx.firstPass {
		return firstPassPlaceholder, nil
	}
	return 0, errors.Wrapf(errUnknownIdentifier, "%q", name)
}

func isLocalLabelRef(name string) bool {
	if !strings.HasSuffix(name, "$") {
		return false
	}
	digits := strings.TrimSuffix(name, "$")
	if digits == "" {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func mangleLocal(scope, n string) string {
	return scope + "@" + n
}
