package vm

import (
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// osShell runs RUN's command against the real host shell, inheriting
// the VM's stdio (§5: "RUN's child inherits the VM's stdio").
type osShell struct{}

func (osShell) Run(command string, stdin, stdout, stderr *os.File) error {
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// syscallPrint implements PRINTLN (newline=true) and PRINT: read the
// base+offset addr/length operand pair, write the raw UTF-8 bytes to
// stdout, flush, per §4.8/§5.
func (vm *VM) syscallPrint(d decoded, newline bool) error {
	addr := uint32(d.inValues[0])
	n := uint32(d.x)

	bytes, err := vm.Mem.ReadBytes(addr, n)
	if err != nil {
		return err
	}

	if _, err := vm.Stdout.Write(bytes); err != nil {
		return errors.Wrap(errIO, err.Error())
	}
	if newline {
		if err := vm.Stdout.WriteByte('\n'); err != nil {
			return errors.Wrap(errIO, err.Error())
		}
	}
	return vm.Stdout.Flush()
}

// syscallRun implements RUN: invoke the host shell on the raw UTF-8
// string at (addr reg, length final), blocking until it completes
// (§5).
func (vm *VM) syscallRun(d decoded) error {
	addr := uint32(d.inValues[0])
	n := uint32(d.x)

	bytes, err := vm.Mem.ReadBytes(addr, n)
	if err != nil {
		return err
	}

	vm.Stdout.Flush()
	if err := vm.Shell.Run(string(bytes), os.Stdin, os.Stdout, os.Stderr); err != nil {
		return errors.Wrapf(errIO, "run: %v", err)
	}
	return nil
}
