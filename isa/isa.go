// Package isa holds the declarative description of the BSVM instruction
// set: the mnemonic table, the operand shapes each opcode accepts, and
// the register aliases. Both the assembler and the VM decoder are built
// against this table so the two halves can never silently disagree
// about what a given opcode byte means.
package isa

import "github.com/pkg/errors"

// ArgType is the 2-bit field packed into the top of an opcode byte. It
// selects the form of an instruction's final operand.
type ArgType byte

const (
	ArgReg    ArgType = 0
	ArgImm8   ArgType = 1
	ArgPCRel8 ArgType = 2
	ArgImm32  ArgType = 3
)

// Op is the 6-bit operation field packed into the bottom of an opcode
// byte.
type Op byte

const (
	Mov Op = 1
	Ldb Op = 2
	Ldw Op = 3
	Stb Op = 4
	Stw Op = 5
	Jmp Op = 6
	Jsr Op = 7
	Rts Op = 8
	Beq Op = 9
	Bne Op = 10
	Blt Op = 11
	Ble Op = 12
	Bgt Op = 13
	Bge Op = 14
	Cmp Op = 15
	Push Op = 16
	Pop  Op = 17
	Add  Op = 18
	Sub  Op = 19
	Mul  Op = 20
	Div  Op = 21
	Mod  Op = 22
	And  Op = 23
	Or   Op = 24
	Xor  Op = 25
	Shl  Op = 26
	Shr  Op = 27
	Exit Op = 28
	Println Op = 29
	Print   Op = 30
	Run     Op = 31
)

const OpMask = 0x3F

// Opcode packs an ArgType and Op into the single leading instruction byte.
func Opcode(at ArgType, op Op) byte {
	return byte(at)<<6 | byte(op)&OpMask
}

// SplitOpcode reverses Opcode.
func SplitOpcode(b byte) (ArgType, Op) {
	return ArgType(b >> 6), Op(b & OpMask)
}

// Descriptor is the operand shape of one operation: how many plain
// output-register bytes, plain input-register-value bytes, and
// argtype-governed "final slot" operands it reads, in that order.
type Descriptor struct {
	NOut   int // output register operands (plain index byte, written)
	NInReg int // input register operands (plain index byte, read as value)
	NInX   int // final-slot operand governed by the instruction's argtype
	// Allowed is the set of ArgTypes the encoder may try, in the order
	// it tries them. Ignored (must be empty) when NInX == 0.
	Allowed []ArgType
}

var ascending = []ArgType{ArgReg, ArgImm8, ArgPCRel8, ArgImm32}

func subset(types ...ArgType) []ArgType {
	allowed := make(map[ArgType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	out := make([]ArgType, 0, len(types))
	for _, t := range ascending {
		if allowed[t] {
			out = append(out, t)
		}
	}
	return out
}

// Descriptors maps every operation to its operand shape. Order of
// Allowed always follows ascending ArgType numeric order (REG, IMM8,
// PCREL8, IMM32) per the encoder's deterministic try-order.
var Descriptors = map[Op]Descriptor{
	Mov: {NOut: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgPCRel8, ArgImm32)},

	Ldb: {NOut: 1, NInReg: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgImm32)},
	Ldw: {NOut: 1, NInReg: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgImm32)},
	Stb: {NInReg: 2, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgImm32)},
	Stw: {NInReg: 2, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgImm32)},

	Jmp: {NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgPCRel8, ArgImm32)},
	Jsr: {NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgPCRel8, ArgImm32)},
	Rts: {},

	Beq: {NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgPCRel8, ArgImm32)},
	Bne: {NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgPCRel8, ArgImm32)},
	Blt: {NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgPCRel8, ArgImm32)},
	Ble: {NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgPCRel8, ArgImm32)},
	Bgt: {NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgPCRel8, ArgImm32)},
	Bge: {NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgPCRel8, ArgImm32)},

	Cmp: {NInReg: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgImm32)},

	Push: {NInX: 1, Allowed: subset(ArgReg)},
	Pop:  {NOut: 1},

	Add: {NOut: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgPCRel8, ArgImm32)},
	Sub: {NOut: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgPCRel8, ArgImm32)},
	Mul: {NOut: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgImm32)},
	Div: {NOut: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgImm32)},
	Mod: {NOut: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgImm32)},

	And: {NOut: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgImm32)},
	Or:  {NOut: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgImm32)},
	Xor: {NOut: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgImm32)},

	Shl: {NOut: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8)},
	Shr: {NOut: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8)},

	Exit: {NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgImm32)},

	Println: {NInReg: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgImm32)},
	Print:   {NInReg: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgImm32)},
	Run:     {NInReg: 1, NInX: 1, Allowed: subset(ArgReg, ArgImm8, ArgImm32)},
}

// Mnemonics maps source text to the Op it assembles to.
var Mnemonics = map[string]Op{
	"MOV": Mov,
	"LDB": Ldb, "LDW": Ldw, "STB": Stb, "STW": Stw,
	"JMP": Jmp, "JSR": Jsr, "RTS": Rts,
	"BEQ": Beq, "BNE": Bne, "BLT": Blt, "BLE": Ble, "BGT": Bgt, "BGE": Bge,
	"CMP": Cmp,
	"PUSH": Push, "POP": Pop,
	"ADD": Add, "SUB": Sub, "MUL": Mul, "DIV": Div, "MOD": Mod,
	"AND": And, "OR": Or, "XOR": Xor,
	"SHL": Shl, "SHR": Shr,
	"EXIT": Exit,
	"PRINTLN": Println, "PRINT": Print, "RUN": Run,
}

var opNames map[Op]string

func init() {
	opNames = make(map[Op]string, len(Mnemonics))
	for name, op := range Mnemonics {
		opNames[op] = name
	}
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "?unknown?"
}

// BranchMask returns the CC bitmask a Bcc operation tests against, and
// whether a match requires the bit set (true) or clear (negated, false).
func BranchMask(op Op) (mask byte, positive bool, ok bool) {
	switch op {
	case Beq:
		return EQ, true, true
	case Bne:
		return EQ, false, true
	case Blt:
		return LT, true, true
	case Ble:
		return LT | EQ, true, true
	case Bgt:
		return GT, true, true
	case Bge:
		return GT | EQ, true, true
	}
	return 0, false, false
}

// Condition code bits, set only by CMP.
const (
	EQ byte = 1 << 0
	LT byte = 1 << 1
	GT byte = 1 << 2
)

// Register aliases. R0 is conventionally "Z" (reader's zero) and R255
// is the stack pointer, per spec §3 (the authoritative Data Model,
// see SPEC_FULL.md §0 for why the §9 "Z->R254" revision is not used).
const (
	ZReg  = 0
	SPReg = 255
)

var errBadRegister = errors.New("invalid register")

// ParseRegister accepts "R<n>" (0-255), "Z" and "SP".
func ParseRegister(tok string) (byte, error) {
	switch tok {
	case "Z":
		return ZReg, nil
	case "SP":
		return SPReg, nil
	}
	if len(tok) < 2 || (tok[0] != 'R' && tok[0] != 'r') {
		return 0, errors.Wrapf(errBadRegister, "%q", tok)
	}
	n := 0
	for _, c := range tok[1:] {
		if c < '0' || c > '9' {
			return 0, errors.Wrapf(errBadRegister, "%q", tok)
		}
		n = n*10 + int(c-'0')
		if n > 255 {
			return 0, errors.Wrapf(errBadRegister, "%q out of range", tok)
		}
	}
	return byte(n), nil
}
