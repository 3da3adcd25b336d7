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

// Package flatten implements the per-instruction engine that converts a DAG
// pattern tree into an Instruction Semantics: the core of the
// pattern-flattener (§4.3 of the specification this module implements).
package flatten

import (
	"strconv"

	"github.com/consensys/semagen/pkg/pattern"
	"github.com/consensys/semagen/pkg/pool"
	"github.com/consensys/semagen/pkg/sema"
	"github.com/consensys/semagen/pkg/target"
)

// Flattener converts one instruction's pattern tree(s) into an
// InstructionSemantics. All of its state (operand-name table, DefNo
// counter, eliminated-implicit-regs set) is scoped to a single instruction;
// construct a fresh Flattener per instruction.
type Flattener struct {
	ctx  *target.Context
	inst *target.Instruction
	pool *pool.Pool

	out      sema.InstructionSemantics
	curDefNo int

	operandByName map[string]int

	eliminatedNames []string // insertion order
	eliminatedSeen  map[string]bool

	diagnostics []Diagnostic
}

// New constructs a Flattener for one instruction, interning constant
// literals into the shared pool.
func New(ctx *target.Context, inst *target.Instruction, pool *pool.Pool) *Flattener {
	return &Flattener{
		ctx:            ctx,
		inst:           inst,
		pool:           pool,
		operandByName:  make(map[string]int),
		eliminatedSeen: make(map[string]bool),
	}
}

// FlattenInstruction converts the instruction's pattern tree(s) into an
// InstructionSemantics. Precondition: every tree is fully type-inferred. On
// a recoverable SetArityMismatch, the returned semantics are empty and the
// diagnostic is included in the returned slice; fatal conditions are returned as a non-nil error and
// the returned semantics must be discarded.
func FlattenInstruction(ctx *target.Context, inst *target.Instruction, constants *pool.Pool) (sema.InstructionSemantics, []Diagnostic, error) {
	f := New(ctx, inst, constants)

	for _, tree := range inst.Trees {
		if err := f.flattenRoot(tree); err != nil {
			if err == errSetArityMismatch {
				f.diagnostics = append(f.diagnostics, Diagnostic{
					Instruction: inst.Name,
					Message:     "set: last child's declared result count does not match the number of preceding children",
				})

				return sema.InstructionSemantics{}, f.diagnostics, nil
			}

			return sema.InstructionSemantics{}, f.diagnostics, err
		}
	}

	f.finalizeImplicitRegs()

	return f.out, f.diagnostics, nil
}

// flattenRoot dispatches a root-level tree node (one with no parent). A root
// is normally a 'set' or 'implicit' pseudo-operator application; this is not
// checked, and a root SDNode application is appended without a parent.
func (f *Flattener) flattenRoot(n *pattern.Node) error {
	return f.flatten(n, nil)
}

// flatten is the dispatch point for any tree node N with parent P (nil at
// the root). Dispatch order follows §4.3 exactly: named operand, leaf, then
// operator (set / implicit / SDNode).
func (f *Flattener) flatten(n *pattern.Node, parent *sema.Node) error {
	if opInfo := f.inst.Operand(n.Name); opInfo != nil {
		return f.flattenOperand(n, parent, opInfo)
	}

	if n.IsLeaf() {
		return f.flattenLeaf(n, parent)
	}

	switch n.Operator {
	case "set":
		return f.flattenSet(n)
	case "implicit":
		return f.flattenImplicit(n)
	default:
		if _, ok := f.ctx.SDNodeInfo(n.Operator); ok {
			return f.flattenSDNode(n, parent)
		}

		return newError(ErrUnknownOperator, f.inst.Name, "unhandled operator %q", n.Operator)
	}
}

// flattenOperand materializes a named-operand reference, deduplicating
// against the Operand-Name Table: named operand N referenced more than once
// emits exactly one GET_RC/CUSTOM_OP/CONSTANT_OP node; every later reference
// reuses the recorded DefNo (Named-operand dedup invariant, §8 property 3).
func (f *Flattener) flattenOperand(n *pattern.Node, parent *sema.Node, opInfo *target.OperandInfo) error {
	if defNo, ok := f.operandByName[opInfo.Name]; ok {
		parent.AddDefOperand(defNo)
		return nil
	}

	rec := opInfo.Rec.Normalize()
	op := sema.Node{Types: n.EffectiveTypes()}

	switch {
	case rec != nil && rec.Kind == pattern.KindOperand:
		if opInfo.OperandType == "OPERAND_IMMEDIATE" {
			op.Opcode = sema.ConstantOp
			op.AddOperand(strconv.FormatUint(uint64(opInfo.MIOperandNo), 10))
		} else {
			op.Opcode = sema.CustomOp
			op.AddOperand(qualifiedOpType(f.inst.Namespace, rec.Name))
			op.AddOperand(strconv.FormatUint(uint64(opInfo.MIOperandNo), 10))
		}
	case rec != nil && rec.Kind == pattern.KindRegisterClass:
		op.Opcode = sema.GetRC
		op.AddOperand(strconv.FormatUint(uint64(opInfo.MIOperandNo), 10))
	default:
		return newError(ErrUnknownOperandType, f.inst.Name, "operand %q is neither an Operand nor a RegisterClass", opInfo.Name)
	}

	f.operandByName[opInfo.Name] = f.curDefNo
	f.addResOperand(parent, op)

	return nil
}

// flattenLeaf materializes an integer-literal or explicit-register leaf.
func (f *Flattener) flattenLeaf(n *pattern.Node, parent *sema.Node) error {
	leaf := n.Leaf
	node := sema.Node{Types: n.EffectiveTypes()}

	switch {
	case leaf.IsInt:
		node.Opcode = sema.MovConstant
		idx := f.pool.Intern(uint64(leaf.Int))
		node.AddOperand(strconv.FormatUint(uint64(idx), 10))
	case leaf.Def != nil && leaf.Def.Kind == pattern.KindRegister:
		node.Opcode = sema.GetReg
		node.AddOperand(qualifiedReg(f.inst.Namespace, leaf.Def.Name))
	default:
		return newError(ErrUnknownLeaf, f.inst.Name, "leaf is neither an integer literal nor a Register")
	}

	f.addResOperand(parent, node)

	return nil
}

// flattenImplicit materializes a root-level 'implicit' node: one IMPLICIT
// Semantics Node whose operands are the qualified register names of each
// child leaf, in order.
func (f *Flattener) flattenImplicit(n *pattern.Node) error {
	ns := sema.Node{Opcode: sema.Implicit, Types: []pattern.ValueType{pattern.Void}}

	for i := 0; i < n.NumChildren(); i++ {
		child := n.Child(i)
		if !child.IsLeaf() || child.Leaf.Def == nil {
			return newError(ErrUnknownLeaf, f.inst.Name, "'implicit' child is not a register leaf")
		}

		ns.AddOperand(qualifiedReg(f.inst.Namespace, child.Leaf.Def.Name))
	}

	f.addSemantics(ns)

	return nil
}

// flattenSet materializes a root-level 'set' node. See §4.3 for the full
// algorithm; on SetArityMismatch this returns the unexported sentinel for
// the caller to convert into a recoverable Diagnostic.
func (f *Flattener) flattenSet(n *pattern.Node) error {
	numNodeDefs := n.NumChildren() - 1
	lastChild := n.Child(numNodeDefs)

	if numNodeDefs != lastChild.NumTypes() {
		return errSetArityMismatch
	}

	// The discard node's own opcode/types are never used: only the operand
	// tokens addResOperand appends to it (one per result LastChild defines)
	// are consulted, to learn how many defs equivalence rewriting left
	// intact.
	var discard sema.Node
	if err := f.flatten(lastChild, &discard); err != nil {
		return err
	}

	numDefs := len(discard.Operands)
	firstDefNo := f.curDefNo - numDefs

	for i := 0; i < numDefs; i++ {
		child := n.Child(i)

		// A set target is either a leaf naming its record directly, or a
		// named operand whose record comes from the instruction's operand list.
		var rec *pattern.Record

		switch {
		case child.IsLeaf() && child.Leaf.Def != nil:
			rec = child.Leaf.Def.Normalize()
		case f.inst.Operand(child.Name) != nil:
			rec = f.inst.Operand(child.Name).Rec.Normalize()
		default:
			return newError(ErrUnknownLeaf, f.inst.Name, "'set' target %d is neither a register leaf nor a named operand", i)
		}

		ns := sema.Node{Types: []pattern.ValueType{pattern.Void}}

		switch {
		case rec != nil && rec.Kind == pattern.KindRegisterClass:
			opInfo := f.inst.Operand(child.Name)
			if opInfo == nil {
				return newError(ErrMissingNamedOperand, f.inst.Name, "'set' output operand %q not found in instruction operand list", child.Name)
			}

			ns.Opcode = sema.PutRC
			ns.AddOperand(strconv.FormatUint(uint64(opInfo.MIOperandNo), 10))
		case rec != nil && rec.Kind == pattern.KindRegister:
			ns.Opcode = sema.PutReg
			ns.AddOperand(qualifiedReg(f.inst.Namespace, rec.Name))
		default:
			return newError(ErrUnknownOperandType, f.inst.Name, "'set' target %d is neither a RegisterClass nor a Register", i)
		}

		ns.AddDefOperand(firstDefNo + i)
		f.addSemantics(ns)
	}

	for i := numDefs; i < numNodeDefs; i++ {
		child := n.Child(i)
		if !child.IsLeaf() {
			return newError(ErrDroppedNonLeaf, f.inst.Name, "equivalence-dropped result %d is not a leaf", i)
		}

		if child.Leaf.Def == nil || child.Leaf.Def.Kind != pattern.KindRegister {
			return newError(ErrDroppedNonRegister, f.inst.Name, "equivalence-dropped result %d is not an imp-def'd register", i)
		}

		f.addEliminatedImplicit(child.Leaf.Def.Name)
	}

	return nil
}

// flattenSDNode materializes a generic SDNode application, applying the
// node-equivalence relation (rewriting the opcode and dropping trailing
// declared results) if one is declared for this operator.
func (f *Flattener) flattenSDNode(n *pattern.Node, parent *sema.Node) error {
	ns := sema.Node{
		Opcode: sema.Opcode(n.Operator),
		Types:  append([]pattern.ValueType(nil), n.EffectiveTypes()...),
	}

	if equiv, ok := f.ctx.Equivalent(n.Operator); ok {
		ns.Opcode = sema.Opcode(equiv.TargetIndependent.Opcode)

		drop := len(ns.Types) - int(equiv.TargetIndependent.NumResults)
		if drop > 0 && drop <= len(ns.Types) {
			ns.Types = ns.Types[:len(ns.Types)-drop]
		}
	}

	for i := 0; i < n.NumChildren(); i++ {
		if err := f.flatten(n.Child(i), &ns); err != nil {
			return err
		}
	}

	if parent != nil {
		f.addResOperand(parent, ns)
	} else {
		f.addSemantics(ns)
	}

	return nil
}

// addSemantics appends node to the instruction semantics, advancing the
// dense-result-index counter by exactly node's non-Void type count (§3
// Def-count monotonicity invariant).
func (f *Flattener) addSemantics(node sema.Node) {
	f.curDefNo += node.NumDefs()
	f.out.Append(node)
}

// addResOperand appends one operand token to parent per non-Void type of
// node — the DefNos node's results will acquire once appended — then
// appends node to the instruction semantics.
func (f *Flattener) addResOperand(parent *sema.Node, node sema.Node) {
	first := f.curDefNo

	idx := 0

	for _, t := range node.Types {
		if t != pattern.Void {
			parent.AddDefOperand(first + idx)
			idx++
		}
	}

	f.addSemantics(node)
}

// addEliminatedImplicit records a register dropped by equivalence rewriting
// for a trailing IMPLICIT node at finalization, in first-insertion order
// (for reproducible output, per §5 Determinism).
func (f *Flattener) addEliminatedImplicit(name string) {
	if f.eliminatedSeen[name] {
		return
	}

	f.eliminatedSeen[name] = true
	f.eliminatedNames = append(f.eliminatedNames, name)
}

// finalizeImplicitRegs appends one IMPLICIT node per register dropped by
// equivalence rewriting across every root tree of this instruction.
func (f *Flattener) finalizeImplicitRegs() {
	for _, name := range f.eliminatedNames {
		ns := sema.Node{Opcode: sema.Implicit, Types: []pattern.ValueType{pattern.Void}}
		ns.AddOperand(qualifiedReg(f.inst.Namespace, name))
		f.out.Append(ns)
	}
}

func qualifiedReg(namespace, name string) string {
	return namespace + "::" + name
}

func qualifiedOpType(namespace, name string) string {
	return namespace + "::OpTypes::" + name
}
