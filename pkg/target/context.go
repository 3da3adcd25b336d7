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

// Package target holds the immutable snapshot of a parsed target
// description: its machine instructions, their operands, register classes
// and SDNode metadata, and the node-equivalence relation between
// target-specific and target-independent SDNodes.
package target

import "github.com/consensys/semagen/pkg/pattern"

// OperandInfo describes one declared operand of a machine instruction: its
// name, its dense index within the instruction's machine-operand list
// (MIOperandNo), its operand-type tag, and the classified record backing it.
type OperandInfo struct {
	Name        string
	MIOperandNo uint
	// OperandType is the declared operand-type tag, e.g. "OPERAND_IMMEDIATE"
	// for immediates, or empty/other for custom operand types.
	OperandType string
	Rec         *pattern.Record
}

// SDNodeRecord carries the metadata needed to describe an SDNode operator:
// its opcode token as it should appear in the emitted stream, and the
// number of results it declares.
type SDNodeRecord struct {
	// Opcode is the symbolic opcode token, e.g. "ISD::ADD".
	Opcode     string
	NumResults uint
}

// SDNodeEquiv declares that a target-specific SDNode is semantically the
// target-independent SDNode stripped of its trailing (flag-like) results.
type SDNodeEquiv struct {
	TargetSpecific    SDNodeRecord
	TargetIndependent SDNodeRecord
}

// Instruction is one machine instruction from the target description.
type Instruction struct {
	Name        string
	Namespace   string
	Operands    []OperandInfo
	CodeGenOnly bool
	// Trees holds the instruction's fully type-inferred pattern trees, one
	// per alternative DAG the elaborator produced for it. Most instructions
	// have exactly one. Nil/empty means the instruction has no pattern.
	Trees []*pattern.Node
}

// HasPattern reports whether the instruction declares any pattern tree.
func (i *Instruction) HasPattern() bool {
	return len(i.Trees) > 0
}

// Operand returns the named operand's info, or nil if no operand of that
// name is declared. An empty name never matches.
func (i *Instruction) Operand(name string) *OperandInfo {
	if name == "" {
		return nil
	}

	for idx := range i.Operands {
		if i.Operands[idx].Name == name {
			return &i.Operands[idx]
		}
	}

	return nil
}

// Context is the immutable, read-only-after-construction snapshot of a
// target description that the flattener and emitter operate over.
type Context struct {
	// Name is the target's name, used to build the output namespace.
	Name string
	// Insts is the ordered sequence of machine instructions, indexed by
	// enum value.
	Insts []Instruction
	// equiv maps a target-specific SDNode opcode token to its
	// target-independent equivalent.
	equiv map[string]SDNodeEquiv
	// nodes is the full SDNode registry (target-independent operator set),
	// keyed by opcode token. Used to recognize an operator as "an SDNode"
	// during dispatch (§4.3), independent of whether it has an equivalence.
	nodes map[string]SDNodeRecord
}

// NewContext constructs a Context from an ordered instruction list, the
// full SDNode registry, and the node-equivalence relation, scanned (by the
// caller, from whatever record universe it was derived) from the
// designated equivalence marker class.
func NewContext(name string, insts []Instruction, nodes []SDNodeRecord, equivs []SDNodeEquiv) *Context {
	nodeMap := make(map[string]SDNodeRecord, len(nodes))
	for _, n := range nodes {
		nodeMap[n.Opcode] = n
	}

	equivMap := make(map[string]SDNodeEquiv, len(equivs))
	for _, e := range equivs {
		equivMap[e.TargetSpecific.Opcode] = e
		// An equivalence implies both ends are valid SDNodes, even if the
		// caller didn't separately enumerate them in the registry.
		if _, ok := nodeMap[e.TargetSpecific.Opcode]; !ok {
			nodeMap[e.TargetSpecific.Opcode] = e.TargetSpecific
		}

		if _, ok := nodeMap[e.TargetIndependent.Opcode]; !ok {
			nodeMap[e.TargetIndependent.Opcode] = e.TargetIndependent
		}
	}

	return &Context{Name: name, Insts: insts, equiv: equivMap, nodes: nodeMap}
}

// Equivalent looks up the node-equivalence relation for a target-specific
// SDNode opcode token. The second return is false when no equivalence is
// declared for that opcode.
func (c *Context) Equivalent(opcode string) (SDNodeEquiv, bool) {
	e, ok := c.equiv[opcode]
	return e, ok
}

// SDNodeInfo looks up the SDNode registry for the metadata (enum/opcode
// token, declared result count) of a given opcode token. The second return
// is false if no SDNode by that name is registered.
func (c *Context) SDNodeInfo(opcode string) (SDNodeRecord, bool) {
	r, ok := c.nodes[opcode]
	return r, ok
}

// Instruction returns the instruction at the given enum index.
func (c *Context) Instruction(enum uint) *Instruction {
	return &c.Insts[enum]
}

// NumInstructions returns the number of instructions in enum order.
func (c *Context) NumInstructions() int {
	return len(c.Insts)
}
