package asm

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"bsvm/isa"
)

// encodeInstruction translates one parsed instruction into 1-7 bytes
// using the first variant that encodes without error, per §4.5.
func encodeInstruction(ctx evalContext, op isa.Op, operands []string, instrPC uint32) ([]byte, error) {
	desc, ok := isa.Descriptors[op]
	if !ok {
		return nil, errors.Wrapf(errUnknownMnemonic, "%v", op)
	}

	want := desc.NOut + desc.NInReg + desc.NInX
	if len(operands) != want {
		return nil, errors.Wrapf(errOperandCount, "%s wants %d operand(s), got %d", op, want, len(operands))
	}

	regBytes := make([]byte, 0, desc.NOut+desc.NInReg)
	for i := 0; i < desc.NOut+desc.NInReg; i++ {
		r, err := isa.ParseRegister(operands[i])
		if err != nil {
			return nil, errors.Wrapf(err, "%s operand %d", op, i+1)
		}
		regBytes = append(regBytes, r)
	}

	if desc.NInX == 0 {
		out := make([]byte, 0, 1+len(regBytes))
		out = append(out, isa.Opcode(isa.ArgReg, op))
		out = append(out, regBytes...)
		return out, nil
	}

	finalTok := operands[len(operands)-1]
	var failures []error
	for _, at := range desc.Allowed {
		tail, err := encodeFinalOperand(ctx, at, finalTok, instrPC)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		out := make([]byte, 0, 1+len(regBytes)+len(tail))
		out = append(out, isa.Opcode(at, op))
		out = append(out, regBytes...)
		out = append(out, tail...)
		return out, nil
	}

	return nil, errors.Wrapf(errNoVariant, "%s %s: %v", op, finalTok, failures)
}

// encodeFinalOperand encodes the argtype-governed last operand of an
// instruction, per the argtype table in §3.
func encodeFinalOperand(ctx evalContext, at isa.ArgType, tok string, instrPC uint32) ([]byte, error) {
	switch at {
	case isa.ArgReg:
		r, err := isa.ParseRegister(tok)
		if err != nil {
			return nil, err
		}
		return []byte{r}, nil

	case isa.ArgImm8:
		v, err := evalExpr(ctx, tok)
		if err != nil {
			return nil, err
		}
		sv := int32(v)
		if sv < -128 || sv > 127 {
			return nil, errors.Wrapf(errImmediateRange, "%d not in [-128,127]", sv)
		}
		return []byte{byte(int8(sv))}, nil

	case isa.ArgPCRel8:
		v, err := evalExpr(ctx, tok)
		if err != nil {
			return nil, err
		}
		off := int64(int32(v)) - int64(int32(instrPC))
		if off < -128 || off > 127 {
			return nil, errors.Wrapf(errPCRelRange, "target-pc=%d not in [-128,127]", off)
		}
		return []byte{byte(int8(off))}, nil

	case isa.ArgImm32:
		v, err := evalExpr(ctx, tok)
		if err != nil {
			return nil, err
		}
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		return b, nil
	}
	return nil, errors.Errorf("unknown argtype %d", at)
}
