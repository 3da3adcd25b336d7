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

// Package interp is a symbolic round-trip interpreter for InstructionSemantics
// streams: test infrastructure only (see SPEC_FULL.md Supplemented Features
// #2), not a production consumer. It executes a flattened instruction
// against symbolic register/operand inputs and builds a symbolic term tree,
// so that property tests can assert the Round-trip law of spec.md §8: the
// interpreted result must match the original pattern modulo equivalence
// rewrites.
package interp

import (
	"fmt"

	"github.com/consensys/semagen/pkg/sema"
)

// Term is a symbolic result value: either a named leaf (a register read, an
// operand fetch, or a constant) or an applied opcode over symbolic operand
// terms.
type Term struct {
	Opcode   sema.Opcode
	Operands []string
	Args     []*Term
}

func (t *Term) String() string {
	if len(t.Args) == 0 {
		if len(t.Operands) == 1 {
			return fmt.Sprintf("%s(%s)", t.Opcode, t.Operands[0])
		}

		return string(t.Opcode)
	}

	s := string(t.Opcode) + "("

	for i, a := range t.Args {
		if i != 0 {
			s += ", "
		}

		s += a.String()
	}

	return s + ")"
}

// Execute interprets one instruction's flattened semantics (without the
// trailing END_OF_INSTRUCTION marker), building the symbolic term for each
// def and returning the side effects (PUT_RC/PUT_REG/IMPLICIT nodes) in
// emission order, each paired with the DefNo term it writes (nil for
// IMPLICIT, which writes no def).
func Execute(nodes []sema.Node) ([]Effect, error) {
	var (
		defs    []*Term
		effects []Effect
	)

	for _, n := range nodes {
		switch n.Opcode {
		case sema.PutRC, sema.PutReg:
			idx, err := defIndex(n.Operands[len(n.Operands)-1])
			if err != nil {
				return nil, err
			}

			if idx < 0 || idx >= len(defs) {
				return nil, fmt.Errorf("interp: %s references undefined DefNo %d", n.Opcode, idx)
			}

			effects = append(effects, Effect{Opcode: n.Opcode, Target: n.Operands[0], Value: defs[idx]})

			continue
		case sema.Implicit:
			effects = append(effects, Effect{Opcode: n.Opcode, Target: n.Operands[0]})
			continue
		}

		term := &Term{Opcode: n.Opcode, Operands: n.Operands}

		for _, pos := range defOperandPositions(n) {
			idx, err := defIndex(n.Operands[pos])
			if err != nil {
				return nil, fmt.Errorf("interp: %s operand %q is not a DefNo: %w", n.Opcode, n.Operands[pos], err)
			}

			if idx < 0 || idx >= len(defs) {
				return nil, fmt.Errorf("interp: %s references undefined DefNo %d", n.Opcode, idx)
			}

			term.Args = append(term.Args, defs[idx])
		}

		for i := 0; i < n.NumDefs(); i++ {
			defs = append(defs, term)
		}
	}

	return effects, nil
}

// defOperandPositions reports which of n's Operands are DefNo
// back-references, consulting the arity schema rather than guessing from
// the token's own shape. A recognized generic opcode's DefNo operands (if
// any) are always its trailing Arity.DefOperands tokens — GET_RC, GET_REG,
// CONSTANT_OP, CUSTOM_OP and MOV_CONSTANT declare zero, since their own
// operands are an MIOperandNo, a qualified register name, or a pool index,
// never a back-reference. An SDNode opcode token carries no fixed schema:
// addResOperand appends a DefNo for every one of its children, so every
// operand is a back-reference.
func defOperandPositions(n sema.Node) []int {
	if arity, ok := sema.ArityOf(n.Opcode); ok {
		start := len(n.Operands) - arity.DefOperands
		positions := make([]int, 0, arity.DefOperands)

		for i := start; i < len(n.Operands); i++ {
			positions = append(positions, i)
		}

		return positions
	}

	positions := make([]int, len(n.Operands))
	for i := range n.Operands {
		positions[i] = i
	}

	return positions
}

// Effect is one observable side effect produced by an instruction: a
// register/operand write, or an implicit register touch.
type Effect struct {
	Opcode sema.Opcode
	Target string
	Value  *Term
}

func defIndex(operand string) (int, error) {
	var idx int

	if _, err := fmt.Sscanf(operand, "%d", &idx); err != nil {
		return -1, err
	}

	return idx, nil
}
