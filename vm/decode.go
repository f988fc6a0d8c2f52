package vm

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"bsvm/isa"
)

// decoded is one fetched instruction: its operation, its plain output
// register indices, its plain input register values, and the resolved
// value of its argtype-governed final operand (if any), per §4.8.
type decoded struct {
	op       isa.Op
	instrPC  uint32
	outRegs  []byte
	inValues []int32
	hasX     bool
	x        int32
}

// fetch decodes the instruction at vm.PC and advances vm.PC past it.
func (vm *VM) fetch() (decoded, error) {
	instrPC := vm.PC

	opByte, err := vm.Mem.ReadByte(vm.PC)
	if err != nil {
		return decoded{}, err
	}
	vm.PC++

	argType, op := isa.SplitOpcode(opByte)
	desc, ok := isa.Descriptors[op]
	if !ok {
		return decoded{}, errors.Wrapf(errUnknownOp, "opcode byte 0x%02X at 0x%X", opByte, instrPC)
	}

	d := decoded{op: op, instrPC: instrPC}

	for i := 0; i < desc.NOut; i++ {
		r, err := vm.Mem.ReadByte(vm.PC)
		if err != nil {
			return decoded{}, err
		}
		vm.PC++
		d.outRegs = append(d.outRegs, r)
	}

	for i := 0; i < desc.NInReg; i++ {
		r, err := vm.Mem.ReadByte(vm.PC)
		if err != nil {
			return decoded{}, err
		}
		vm.PC++
		d.inValues = append(d.inValues, vm.reg(r))
	}

	if desc.NInX == 1 {
		d.hasX = true
		v, err := vm.readFinalOperand(argType, instrPC)
		if err != nil {
			return decoded{}, err
		}
		d.x = v
	}

	return d, nil
}

// readFinalOperand reads the argtype-governed last operand of an
// instruction and resolves it to a value, per §4.8 step 3.
func (vm *VM) readFinalOperand(at isa.ArgType, instrPC uint32) (int32, error) {
	switch at {
	case isa.ArgReg:
		r, err := vm.Mem.ReadByte(vm.PC)
		if err != nil {
			return 0, err
		}
		vm.PC++
		return vm.reg(r), nil

	case isa.ArgImm8:
		b, err := vm.Mem.ReadByte(vm.PC)
		if err != nil {
			return 0, err
		}
		vm.PC++
		return int32(int8(b)), nil

	case isa.ArgPCRel8:
		b, err := vm.Mem.ReadByte(vm.PC)
		if err != nil {
			return 0, err
		}
		vm.PC++
		return int32(instrPC) + int32(int8(b)), nil

	case isa.ArgImm32:
		if err := vm.Mem.bounds(vm.PC, 4); err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint32(vm.Mem[vm.PC : vm.PC+4])
		vm.PC += 4
		return int32(v), nil
	}
	return 0, errors.Errorf("unknown argtype %d", at)
}
