// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package sema

// Arity describes the fixed (types-count, operands-count) shape of a generic
// opcode, as known to the interpreter that walks the emitted stream (see
// DCInstrSema::translateOpcode in the original source, which reads exactly
// this many unsigned words per opcode).
type Arity struct {
	Types    int
	Operands int
	// VariadicOperands marks opcodes (only IMPLICIT) whose Operands count is
	// a minimum, not an exact count.
	VariadicOperands bool
	// DefOperands counts how many of Operands, counted from the end, are
	// DefNo back-references into the dense result index rather than the
	// opcode's own literal tokens (an MIOperandNo, a qualified register
	// name, or a pool index). Only PUT_RC/PUT_REG carry one (addResOperand
	// never touches a generic opcode's own operands, only a parent's).
	DefOperands int
}

// genericArity is the arity schema for the fixed generic opcode set. SDNode
// opcodes are not listed here: their arity is exactly the node's own
// Types/Operands counts, since they carry no fixed schema of their own, and
// flattenSDNode appends a DefNo for every child via addResOperand, so every
// one of their operands is a back-reference.
var genericArity = map[Opcode]Arity{
	EndOfInstruction: {Types: 0, Operands: 0},
	GetReg:           {Types: 1, Operands: 1},
	GetRC:            {Types: 1, Operands: 1},
	PutReg:           {Types: 1, Operands: 2, DefOperands: 1},
	PutRC:            {Types: 1, Operands: 2, DefOperands: 1},
	MovConstant:      {Types: 1, Operands: 1},
	ConstantOp:       {Types: 1, Operands: 1},
	CustomOp:         {Types: -1, Operands: 2},
	Implicit:         {Types: 1, Operands: 1, VariadicOperands: true},
}

// ArityOf returns the arity schema for a generic opcode. The second return
// is false for SDNode opcode tokens, which have no fixed schema: the
// interpreter must instead consult the node's own Types/Operands lengths.
func ArityOf(op Opcode) (Arity, bool) {
	a, ok := genericArity[op]
	return a, ok
}
