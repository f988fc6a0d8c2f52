// Package vm implements the BSVM fetch/decode/execute loop: a flat
// 1 MiB address space, 256 general registers, a 3-bit condition code,
// and the 31 operations of §4.8.
package vm

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
)

// NumRegisters is the size of the register file. R0 aliases Z, R255
// aliases SP (§3, and SPEC_FULL.md §0 on why the alternate Z->R254
// convention isn't used).
const NumRegisters = 256

// ResetPC is both the VM's initial program counter and the address the
// assembled image is loaded at (§3, §0 of SPEC_FULL.md).
const ResetPC uint32 = 1

var (
	errDivByZero    = errors.New("division by zero")
	errUnknownOp    = errors.New("unknown opcode")
	errIO           = errors.New("input-output error")
)

// Shell is the interface the RUN syscall uses to invoke a host shell
// command. New sets it to an os/exec-backed host shell; any other
// implementation can be assigned to VM.Shell.
type Shell interface {
	Run(command string, stdin, stdout, stderr *os.File) error
}

// VM is one BSVM core: registers, memory, condition code, and the
// runtime state of the fetch/decode/execute loop.
type VM struct {
	Regs [NumRegisters]int32
	CC   byte
	Mem  Memory

	PC uint32

	Running  bool
	ExitCode int

	Stdout *bufio.Writer
	Stdin  *bufio.Reader

	Shell Shell

	// Err is set when execution stops abnormally (runtime fault); nil
	// on a clean EXIT.
	Err error
}

// New creates a VM with memory and registers zeroed, PC at ResetPC,
// writing to os.Stdout and reading os.Stdin, and a real host shell for
// RUN.
func New() *VM {
	return &VM{
		PC:     ResetPC,
		Stdout: bufio.NewWriter(os.Stdout),
		Stdin:  bufio.NewReader(os.Stdin),
		Shell:  osShell{},
	}
}

// LoadProgram loads an assembled image at ResetPC and resets execution
// state around it (registers and CC stay as they are on a fresh VM:
// zeroed).
func (vm *VM) LoadProgram(image []byte) error {
	if err := vm.Mem.LoadImage(ResetPC, image); err != nil {
		return err
	}
	vm.PC = ResetPC
	vm.Running = true
	vm.ExitCode = 1
	return nil
}

// Run executes until EXIT or a runtime fault. Flushes stdout before
// returning either way, per §5's "stdout flushed after every
// PRINT/PRINTLN" ordering guarantee.
func (vm *VM) Run() {
	for vm.Running {
		vm.Step()
	}
	vm.Stdout.Flush()
}

// Step executes exactly one instruction.
func (vm *VM) Step() {
	if !vm.Running {
		return
	}
	pc := vm.PC
	if err := vm.step(); err != nil {
		vm.Running = false
		vm.ExitCode = 1
		vm.Err = errors.Wrapf(err, "instruction at 0x%X", pc)
	}
}

func (vm *VM) reg(i byte) int32     { return vm.Regs[i] }
func (vm *VM) setReg(i byte, v int32) { vm.Regs[i] = v }

func (vm *VM) setCC(bit byte, on bool) {
	if on {
		vm.CC |= bit
	} else {
		vm.CC &^= bit
	}
}

func (vm *VM) ccMatches(mask byte, positive bool) bool {
	hit := vm.CC&mask != 0
	return hit == positive
}
