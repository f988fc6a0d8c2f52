package asm_test

import (
	"testing"

	"bsvm/asm"
)

func assert(t *testing.T, cond bool, format string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	src := []string{
		"MOV R1, #5",
		"ADD R1, #3",
		"EXIT R1",
	}
	a, err := asm.AssembleSource(src)
	assert(t, err == nil, "first assemble: %v", err)
	b, err := asm.AssembleSource(src)
	assert(t, err == nil, "second assemble: %v", err)
	assert(t, string(a) == string(b), "assembling the same source twice produced different images")
}

func TestForwardLabelConverges(t *testing.T) {
	image, err := asm.AssembleSource([]string{
		"JMP done",
		".space 200",
		"done:",
		"EXIT #0",
	})
	assert(t, err == nil, "assemble: %v", err)
	assert(t, len(image)%4 == 0, "image length %d not 4-padded", len(image))
}

func TestBranchPicksShortestFittingVariant(t *testing.T) {
	// near_target's absolute address (201) is too big for IMM8, but its
	// offset from the BEQ instruction fits in a signed byte, so the
	// encoder should pick the 1-byte PCREL8 variant.
	near, err := asm.AssembleSource([]string{
		".space 200",
		"near_target:",
		"EXIT #0",
		"BEQ near_target",
	})
	assert(t, err == nil, "assemble near branch: %v", err)
	assert(t, len(near) == 204, "near branch image = %d bytes, want 204 (2-byte PCREL8 branch)", len(near))

	// far_target is placed far enough from the BEQ that neither its
	// absolute address nor its offset fits a signed byte, forcing the
	// 4-byte IMM32 fallback.
	far, err := asm.AssembleSource([]string{
		".space 200",
		"far_target:",
		"EXIT #0",
		".space 200",
		"BEQ far_target",
	})
	assert(t, err == nil, "assemble far branch: %v", err)
	assert(t, len(far) == 408, "far branch image = %d bytes, want 408 (5-byte IMM32 branch)", len(far))
}

func TestImmediate8RangeEnforced(t *testing.T) {
	// SHL/SHR allow only REG and IMM8, so out-of-range immediates have
	// no wider variant to fall back to.
	_, err := asm.AssembleSource([]string{"SHL R1, #128"})
	assert(t, err != nil, "SHL R1,#128 should fail: 128 doesn't fit in a signed IMM8")

	_, err = asm.AssembleSource([]string{"SHL R1, #-128"})
	assert(t, err == nil, "SHL R1,#-128 should succeed: -128 fits in a signed IMM8, got %v", err)
}

func TestByteDirectiveRangeEnforced(t *testing.T) {
	_, err := asm.AssembleSource([]string{".byte 256"})
	assert(t, err != nil, "expected .byte 256 to be out of range")
}

func TestLongDirectiveEndianness(t *testing.T) {
	// .long must be 4-aligned; the load address is 1, so .align 4 pads
	// 3 bytes before the word lands at address 4.
	image, err := asm.AssembleSource([]string{
		".align 4",
		".long 0x11223344",
	})
	assert(t, err == nil, "assemble: %v", err)
	assert(t, len(image) >= 7, "image too short: %d bytes", len(image))
	want := []byte{0x44, 0x33, 0x22, 0x11}
	for i, b := range want {
		assert(t, image[3+i] == b, "byte %d = 0x%02X, want 0x%02X", 3+i, image[3+i], b)
	}
}

func TestLongDirectiveUnalignedFails(t *testing.T) {
	_, err := asm.AssembleSource([]string{".long 0x1"})
	assert(t, err != nil, "expected .long at the unaligned load address (1) to fail")
}

func TestAsciiEscapes(t *testing.T) {
	image, err := asm.AssembleSource([]string{`.ascii "A\tb"`})
	assert(t, err == nil, "assemble: %v", err)
	want := []byte{'A', '\t', 'b'}
	for i, b := range want {
		assert(t, image[i] == b, "byte %d = 0x%02X, want 0x%02X", i, image[i], b)
	}
}

func TestAsciiUTF8Passthrough(t *testing.T) {
	image, err := asm.AssembleSource([]string{`.ascii "é"`})
	assert(t, err == nil, "assemble: %v", err)
	want := []byte{0xC3, 0xA9}
	assert(t, image[0] == want[0] && image[1] == want[1],
		"got % X, want % X", image[:2], want)
}

func TestLocalLabelScoping(t *testing.T) {
	_, err := asm.AssembleSource([]string{
		"foo:",
		"1$:",
		"bar:",
		"1$:",
		"EXIT #0",
	})
	assert(t, err == nil, "foo@1 and bar@1 should be distinct labels: %v", err)
}

func TestLocalLabelOutsideScopeFails(t *testing.T) {
	_, err := asm.AssembleSource([]string{
		"1$:",
		"EXIT #0",
	})
	assert(t, err != nil, "a local label before any global label should fail")
}

func TestDuplicateGlobalLabelFails(t *testing.T) {
	_, err := asm.AssembleSource([]string{
		"foo:",
		"foo:",
		"EXIT #0",
	})
	assert(t, err != nil, "redefining a global label should fail")
}

func TestAlignDirective(t *testing.T) {
	image, err := asm.AssembleSource([]string{
		".byte 1",
		".align 4",
		".long 0x7",
	})
	assert(t, err == nil, "assemble: %v", err)
	assert(t, len(image)%4 == 0, "image length %d not 4-padded", len(image))
}

func TestUnknownMnemonicFails(t *testing.T) {
	_, err := asm.AssembleSource([]string{"FROB R1, R2"})
	assert(t, err != nil, "an unknown mnemonic should fail to assemble")
}

func TestMissingSourceFileFails(t *testing.T) {
	_, err := asm.AssembleFiles("does-not-exist.b")
	assert(t, err != nil, "assembling a missing file should fail")
}
