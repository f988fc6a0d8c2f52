package vm

import (
	"github.com/pkg/errors"

	"bsvm/isa"
)

// step fetches and executes exactly one instruction, per §4.8's
// decoder/dispatcher design.
func (vm *VM) step() error {
	d, err := vm.fetch()
	if err != nil {
		return err
	}

	if mask, positive, ok := isa.BranchMask(d.op); ok {
		if vm.ccMatches(mask, positive) {
			vm.PC = uint32(d.x)
		}
		return nil
	}

	switch d.op {
	case isa.Mov:
		vm.setReg(d.outRegs[0], d.x)

	case isa.Ldb:
		addr := uint32(d.inValues[0] + d.x)
		b, err := vm.Mem.ReadByte(addr)
		if err != nil {
			return err
		}
		vm.setReg(d.outRegs[0], int32(uint32(b)))

	case isa.Ldw:
		addr := uint32(d.inValues[0] + d.x)
		v, err := vm.Mem.Read32(addr)
		if err != nil {
			return err
		}
		vm.setReg(d.outRegs[0], int32(v))

	case isa.Stb:
		addr := uint32(d.inValues[1] + d.x)
		if err := vm.Mem.WriteByte(addr, byte(d.inValues[0])); err != nil {
			return err
		}

	case isa.Stw:
		addr := uint32(d.inValues[1] + d.x)
		if err := vm.Mem.Write32(addr, uint32(d.inValues[0])); err != nil {
			return err
		}

	case isa.Rts:
		sp := uint32(vm.reg(isa.SPReg))
		v, err := vm.Mem.Read32(sp)
		if err != nil {
			return err
		}
		vm.setReg(isa.SPReg, int32(sp+4))
		vm.PC = v

	case isa.Cmp:
		a, b := d.inValues[0], int32(d.x)
		vm.setCC(isa.EQ, a == b)
		vm.setCC(isa.LT, a < b)
		vm.setCC(isa.GT, a > b)

	case isa.Push:
		sp := uint32(vm.reg(isa.SPReg)) - 4
		if err := vm.Mem.Write32(sp, uint32(d.x)); err != nil {
			return err
		}
		vm.setReg(isa.SPReg, int32(sp))

	case isa.Pop:
		sp := uint32(vm.reg(isa.SPReg))
		v, err := vm.Mem.Read32(sp)
		if err != nil {
			return err
		}
		vm.setReg(isa.SPReg, int32(sp+4))
		vm.setReg(d.outRegs[0], int32(v))

	case isa.Jmp:
		vm.PC = uint32(d.x)

	case isa.Jsr:
		sp := uint32(vm.reg(isa.SPReg)) - 4
		if err := vm.Mem.Write32(sp, vm.PC); err != nil {
			return err
		}
		vm.setReg(isa.SPReg, int32(sp))
		vm.PC = uint32(d.x)

	case isa.Add:
		a := d.outRegs[0]
		vm.setReg(a, vm.reg(a)+d.x)
	case isa.Sub:
		a := d.outRegs[0]
		vm.setReg(a, vm.reg(a)-d.x)
	case isa.Mul:
		a := d.outRegs[0]
		vm.setReg(a, vm.reg(a)*d.x)
	case isa.Div:
		a := d.outRegs[0]
		if d.x == 0 {
			return errDivByZero
		}
		vm.setReg(a, floorDiv(vm.reg(a), d.x))
	case isa.Mod:
		a := d.outRegs[0]
		if d.x == 0 {
			return errDivByZero
		}
		vm.setReg(a, floorMod(vm.reg(a), d.x))

	case isa.And:
		a := d.outRegs[0]
		vm.setReg(a, vm.reg(a)&d.x)
	case isa.Or:
		a := d.outRegs[0]
		vm.setReg(a, vm.reg(a)|d.x)
	case isa.Xor:
		a := d.outRegs[0]
		vm.setReg(a, vm.reg(a)^d.x)

	case isa.Shl:
		a := d.outRegs[0]
		vm.setReg(a, vm.reg(a)<<uint32(d.x))
	case isa.Shr:
		a := d.outRegs[0]
		vm.setReg(a, vm.reg(a)>>uint32(d.x))

	case isa.Exit:
		vm.ExitCode = int(d.x)
		vm.Running = false

	case isa.Println:
		return vm.syscallPrint(d, true)
	case isa.Print:
		return vm.syscallPrint(d, false)
	case isa.Run:
		return vm.syscallRun(d)

	default:
		return errors.Wrapf(errUnknownOp, "%v", d.op)
	}

	return nil
}

// floorDiv implements Euclidean floor division: the quotient rounds
// toward negative infinity, per SPEC_FULL.md §0.
func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorMod is the remainder consistent with floorDiv: it always has
// the same sign as the divisor.
func floorMod(a, b int32) int32 {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}
