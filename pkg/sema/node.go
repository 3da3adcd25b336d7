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

// Package sema holds the output unit of the flattener: a Semantics Node
// (opcode, result types, operand tokens) and the per-instruction sequence of
// them that together form one instruction's linearized semantics.
package sema

import (
	"strconv"
	"strings"

	"github.com/consensys/semagen/pkg/pattern"
)

// Opcode is a symbolic opcode token: either one of the fixed generic
// opcodes below, or an SDNode opcode token drawn from the target-independent
// operator set (e.g. "ISD::ADD").
type Opcode string

// The fixed generic opcode set shared across targets. Tokens are fully
// qualified with the DCINS:: namespace up front (matching how the original
// backend stores "DCINS::GET_RC" etc. directly in NodeSemantics::Opcode),
// so the emitter never needs to special-case generic vs. SDNode opcodes
// when rendering a line.
const (
	EndOfInstruction Opcode = "DCINS::END_OF_INSTRUCTION"
	ConstantOp       Opcode = "DCINS::CONSTANT_OP"
	CustomOp         Opcode = "DCINS::CUSTOM_OP"
	GetRC            Opcode = "DCINS::GET_RC"
	GetReg           Opcode = "DCINS::GET_REG"
	PutRC            Opcode = "DCINS::PUT_RC"
	PutReg           Opcode = "DCINS::PUT_REG"
	MovConstant      Opcode = "DCINS::MOV_CONSTANT"
	Implicit         Opcode = "DCINS::IMPLICIT"
)

// Node is one Semantics Node: an opcode token, the value types of each
// result it produces (in emission order), and the textual operand tokens
// consumed. Every non-Void entry of Types contributes exactly one new result
// to the instruction's dense index space, in emission order.
type Node struct {
	Opcode   Opcode
	Types    []pattern.ValueType
	Operands []string
}

// NumDefs returns the number of non-Void result types this node produces.
func (n Node) NumDefs() int {
	count := 0

	for _, t := range n.Types {
		if t != pattern.Void {
			count++
		}
	}

	return count
}

// AddOperand appends a textual operand token to this node.
func (n *Node) AddOperand(tok string) {
	n.Operands = append(n.Operands, tok)
}

// AddDefOperand appends the decimal textual form of a dense result index as
// an operand token.
func (n *Node) AddDefOperand(defNo int) {
	n.AddOperand(strconv.Itoa(defNo))
}

// Line renders this node as the single output line the emitter writes for
// it: "<Opcode>, <Type0>, ..., <Operand0>, ...,".
func (n Node) Line() string {
	var b strings.Builder

	b.WriteString(string(n.Opcode))

	for _, t := range n.Types {
		b.WriteString(", ")
		b.WriteString(string(t))
	}

	for _, op := range n.Operands {
		b.WriteString(", ")
		b.WriteString(op)
	}

	b.WriteString(",")

	return b.String()
}

// InstructionSemantics is the ordered sequence of Semantics Nodes for one
// instruction, terminated at stream level by EndOfInstruction.
type InstructionSemantics struct {
	Nodes []Node
}

// Empty reports whether this instruction has no semantics at all.
func (s *InstructionSemantics) Empty() bool {
	return len(s.Nodes) == 0
}

// Append adds a node to the sequence.
func (s *InstructionSemantics) Append(n Node) {
	s.Nodes = append(s.Nodes, n)
}
