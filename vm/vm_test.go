package vm_test

import (
	"testing"

	"bsvm/asm"
	"bsvm/vm"
)

// assert follows the teacher's test-helper convention.
func assert(t *testing.T, cond bool, format string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func mustAssemble(t *testing.T, lines ...string) []byte {
	t.Helper()
	image, err := asm.AssembleSource(lines)
	assert(t, err == nil, "assemble: %v", err)
	return image
}

func runToExit(t *testing.T, image []byte) *vm.VM {
	t.Helper()
	m := vm.New()
	assert(t, m.LoadProgram(image) == nil, "load program failed")
	m.Run()
	assert(t, m.Err == nil, "unexpected runtime fault: %v", m.Err)
	return m
}

func TestAddAndExit(t *testing.T) {
	image := mustAssemble(t,
		"MOV R1, #5",
		"MOV R2, #7",
		"ADD R1, R2",
		"EXIT R1",
	)
	m := runToExit(t, image)
	assert(t, m.ExitCode == 12, "exit code = %d, want 12", m.ExitCode)
}

func TestJsrRtsRestoresSP(t *testing.T) {
	image := mustAssemble(t,
		"MOV SP, #0x10000",
		"JSR sub",
		"EXIT #0",
		"sub:",
		"MOV R1, #1",
		"RTS",
	)
	m := runToExit(t, image)
	assert(t, m.ExitCode == 0, "exit code = %d, want 0", m.ExitCode)
	assert(t, m.Regs[255] == 0x10000, "SP = 0x%X, want 0x10000 (not restored)", m.Regs[255])
}

func TestCmpAndBranch(t *testing.T) {
	image := mustAssemble(t,
		"MOV R1, #-1",
		"CMP R1, #0",
		"BLT neg",
		"EXIT #1",
		"neg:",
		"EXIT #2",
	)
	m := runToExit(t, image)
	assert(t, m.ExitCode == 2, "exit code = %d, want 2", m.ExitCode)
}

func TestPrintlnReadsBaseOffsetString(t *testing.T) {
	image := mustAssemble(t,
		"MOV R1, msg",
		"MOV R2, #2",
		"PRINTLN R1, R2",
		"EXIT #0",
		"msg:",
		".ascii \"hi\"",
	)
	m := vm.New()
	assert(t, m.LoadProgram(image) == nil, "load program failed")
	m.Run()
	assert(t, m.ExitCode == 0, "exit code = %d, want 0", m.ExitCode)
}

func TestFloorDivision(t *testing.T) {
	image := mustAssemble(t,
		"MOV R1, #-7",
		"MOV R2, #2",
		"DIV R1, R2",
		"EXIT R1",
	)
	m := runToExit(t, image)
	assert(t, m.Regs[1] == -4, "R1 = %d, want -4 (floor division)", m.Regs[1])
}

func TestPushPopRoundTrip(t *testing.T) {
	image := mustAssemble(t,
		"MOV SP, #0x10000",
		"MOV R1, #42",
		"PUSH R1",
		"POP R3",
		"EXIT R3",
	)
	m := runToExit(t, image)
	assert(t, m.ExitCode == 42, "exit code = %d, want 42", m.ExitCode)
	assert(t, m.Regs[255] == 0x10000, "SP = 0x%X, want 0x10000 (not balanced)", m.Regs[255])
}

func TestDivisionByZeroFaults(t *testing.T) {
	image := mustAssemble(t,
		"MOV R1, #1",
		"MOV R2, #0",
		"DIV R1, R2",
		"EXIT #0",
	)
	m := vm.New()
	assert(t, m.LoadProgram(image) == nil, "load program failed")
	m.Run()
	assert(t, m.Err != nil, "expected a division-by-zero fault")
}
