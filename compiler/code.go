package compiler

import (
	"fmt"

	"nilan/value"
)

// Bytecode is the compiled artifact handed from the compiler to the VM:
// a flat instruction stream, the constant pool literals were appended to,
// and the global-symbol name list `let`/builtins were appended to. Matches
// the teacher's Bytecode{Instructions, ConstantsPool} shape plus the
// NameConstants-style field the teacher's ASTCompiler already carried for
// global names, renamed Globals per spec.md §4.2's "global symbol table".
type Bytecode struct {
	Instructions Instructions
	Constants    []value.Value
	Globals      []string
}

// Opcode is a single instruction tag - one byte, per spec.md §6.
type Opcode byte

type Instructions []byte

// Opcode encoding. 0x00-0x0C are spec.md §6's fixed, authoritative
// mnemonics; 0x0D and up are this build's supplements (jumps, comparisons,
// logical-not, unary negate) for features spec.md names but leaves the
// opcode choice to the implementation - see SPEC_FULL.md §8.
const (
	OP_HALT Opcode = iota
	OP_CONST
	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_MOD
	OP_STORE
	OP_LOAD
	OP_CALL
	OP_DEF_GLOBAL
	OP_LOAD_GLOBAL
	OP_SET_GLOBAL

	// supplements, outside spec.md's 13-opcode table
	OP_JUMP
	OP_JUMP_IF_FALSE
	OP_EQUAL
	OP_LESS
	OP_GREATER
	OP_NOT
	OP_NEG
	OP_POP
	OP_JUMP_IF_FALSE_PEEK
)

// OpCodeDefinition names an opcode and the byte-width of each of its
// operands, mirroring the teacher's definitions map shape but with every
// width collapsed to 1 (or none), per spec.md §6's one-byte operand format.
type OpCodeDefinition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*OpCodeDefinition{
	OP_HALT:               {Name: "OP_HALT", OperandWidths: []int{}},
	OP_CONST:              {Name: "OP_CONST", OperandWidths: []int{1}},
	OP_ADD:                {Name: "OP_ADD", OperandWidths: []int{}},
	OP_SUB:                {Name: "OP_SUB", OperandWidths: []int{}},
	OP_MUL:                {Name: "OP_MUL", OperandWidths: []int{}},
	OP_DIV:                {Name: "OP_DIV", OperandWidths: []int{}},
	OP_MOD:                {Name: "OP_MOD", OperandWidths: []int{}},
	OP_STORE:              {Name: "OP_STORE", OperandWidths: []int{1}},
	OP_LOAD:               {Name: "OP_LOAD", OperandWidths: []int{1}},
	OP_CALL:               {Name: "OP_CALL", OperandWidths: []int{1}},
	OP_DEF_GLOBAL:         {Name: "OP_DEF_GLOBAL", OperandWidths: []int{1}},
	OP_LOAD_GLOBAL:        {Name: "OP_LOAD_GLOBAL", OperandWidths: []int{1}},
	OP_SET_GLOBAL:         {Name: "OP_SET_GLOBAL", OperandWidths: []int{1}},
	OP_JUMP:               {Name: "OP_JUMP", OperandWidths: []int{1}},
	OP_JUMP_IF_FALSE:      {Name: "OP_JUMP_IF_FALSE", OperandWidths: []int{1}},
	OP_EQUAL:              {Name: "OP_EQUAL", OperandWidths: []int{}},
	OP_LESS:               {Name: "OP_LESS", OperandWidths: []int{}},
	OP_GREATER:            {Name: "OP_GREATER", OperandWidths: []int{}},
	OP_NOT:                {Name: "OP_NOT", OperandWidths: []int{}},
	OP_NEG:                {Name: "OP_NEG", OperandWidths: []int{}},
	OP_POP:                {Name: "OP_POP", OperandWidths: []int{}},
	OP_JUMP_IF_FALSE_PEEK: {Name: "OP_JUMP_IF_FALSE_PEEK", OperandWidths: []int{1}},
}

// Get looks up an opcode's definition, failing for unknown bytes the way
// a corrupt or future-versioned bytecode stream would.
func Get(op Opcode) (*OpCodeDefinition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode: '%d' undefined", op)
	}
	return def, nil
}

// MakeInstruction encodes an opcode and its operands (each one byte wide,
// truncated from int) into a byte slice ready to append to an instruction
// stream.
func MakeInstruction(op Opcode, operands ...int) []byte {
	def, err := Get(op)
	if err != nil {
		return []byte{}
	}

	instructionLength := 1
	for _, w := range def.OperandWidths {
		instructionLength += w
	}

	instruction := make([]byte, instructionLength)
	instruction[0] = byte(op)

	offset := 1
	for i, o := range operands {
		width := def.OperandWidths[i]
		if width == 1 {
			instruction[offset] = byte(o)
		}
		offset += width
	}
	return instruction
}

// ReadOperand decodes the single operand byte following an opcode at
// instructions[offset]. Every operand in this format is one byte; there is
// nothing wider to decode.
func ReadOperand(instructions Instructions, offset int) byte {
	return instructions[offset]
}

// DisassembleInstruction renders one instruction at offset as text
// ("0000 OP_CONST 2"), returning the rendered line and the offset of the
// next instruction. Grounded on the teacher's DiassembleInstruction.
func DisassembleInstruction(instructions Instructions, offset int) (string, int) {
	op := Opcode(instructions[offset])
	def, err := Get(op)
	if err != nil {
		return fmt.Sprintf("%04d ERROR: %s", offset, err), offset + 1
	}

	if len(def.OperandWidths) == 0 {
		return fmt.Sprintf("%04d %s", offset, def.Name), offset + 1
	}

	operand := ReadOperand(instructions, offset+1)
	return fmt.Sprintf("%04d %s %d", offset, def.Name, operand), offset + 2
}

// Disassemble renders an entire instruction stream, one line per
// instruction, for the disasm subcommand and debug dumps.
func Disassemble(instructions Instructions) string {
	out := ""
	offset := 0
	for offset < len(instructions) {
		line, next := DisassembleInstruction(instructions, offset)
		out += line + "\n"
		offset = next
	}
	return out
}
