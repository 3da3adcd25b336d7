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

// Package pattern holds the data model shared by the target description and
// the DAG-shaped pattern trees the (out of scope) elaborator produces: value
// types, the record-classification enum, and the pattern tree itself (a tree
// of operator nodes and leaves, each already annotated with its inferred
// value types). This package performs no type inference of its own.
package pattern

import "fmt"

// ValueType is a machine value type drawn from the target description. The
// zero value is never used directly; Void is the distinguished sentinel for
// effect-only operations.
type ValueType string

// Void is the sentinel value type for operations which produce no result.
const Void ValueType = "isVoid"

// Kind classifies an operand-bearing record at the boundary between this
// module and the (out of scope) declarative-records universe it was derived
// from. The flattener switches on Kind rather than querying class
// membership dynamically, per the classification design note.
type Kind uint8

// The four classifications the flattener needs to distinguish.
const (
	KindOperand Kind = iota
	KindRegisterOperand
	KindRegisterClass
	KindRegister
)

func (k Kind) String() string {
	switch k {
	case KindOperand:
		return "Operand"
	case KindRegisterOperand:
		return "RegisterOperand"
	case KindRegisterClass:
		return "RegisterClass"
	case KindRegister:
		return "Register"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Record is the classified record backing a named operand or a leaf
// reference. A RegisterOperand wraps a RegisterClass; callers normalize by
// following Wrapped until Kind != KindRegisterOperand.
type Record struct {
	Kind Kind
	// Name of the underlying record (Operand type name, RegisterClass name,
	// or Register name, depending on Kind).
	Name string
	// Wrapped holds the RegisterClass record a RegisterOperand wraps. Only
	// meaningful when Kind == KindRegisterOperand.
	Wrapped *Record
}

// Normalize follows RegisterOperand wrapping down to the underlying
// RegisterClass, matching the "RegisterOperands are the same thing as
// RegisterClasses" rule applied throughout the flattener.
func (r *Record) Normalize() *Record {
	for r != nil && r.Kind == KindRegisterOperand {
		r = r.Wrapped
	}

	return r
}

// Leaf is a pattern-tree leaf value: either an integer literal, or a
// reference to a defined record (in practice, always a Register for
// explicit-register leaves; named-operand leaves are resolved by name
// lookup before a node is ever treated as a leaf reference).
type Leaf struct {
	IsInt bool
	Int   int64
	Def   *Record
}

// Node is one node of a pattern tree. A node is either a leaf (Leaf != nil)
// or an operator application (Operator != "" with zero or more Children).
// Name is the named-operand identifier this node was written against in the
// source pattern, or empty if the node is unnamed.
type Node struct {
	Name     string
	Types    []ValueType
	Leaf     *Leaf
	Operator string
	Children []*Node
}

// IsLeaf reports whether this node is a leaf.
func (n *Node) IsLeaf() bool {
	return n.Leaf != nil
}

// NumChildren returns the number of children of an operator node.
func (n *Node) NumChildren() int {
	return len(n.Children)
}

// Child returns the i'th child of an operator node.
func (n *Node) Child(i int) *Node {
	return n.Children[i]
}

// NumTypes returns the number of inferred result types declared for this
// node, as elaborated upstream. This may be zero for effect-only nodes.
func (n *Node) NumTypes() int {
	return len(n.Types)
}

// EffectiveTypes returns the node's inferred types, or a single Void entry
// if the node declares none — the "or [void] if N has no declared types"
// rule applied throughout the flattener.
func (n *Node) EffectiveTypes() []ValueType {
	if len(n.Types) == 0 {
		return []ValueType{Void}
	}

	return n.Types
}

// NewLeafInt constructs a leaf node for an integer literal.
func NewLeafInt(value int64, types ...ValueType) *Node {
	return &Node{Types: types, Leaf: &Leaf{IsInt: true, Int: value}}
}

// NewLeafDef constructs a leaf node referencing a defined record (a
// Register, in every case the flattener supports).
func NewLeafDef(def *Record, types ...ValueType) *Node {
	return &Node{Types: types, Leaf: &Leaf{Def: def}}
}

// NewNamed wraps a node with a named-operand identifier, as written in the
// source pattern (e.g. the "$dst" in "GPR:$dst").
func NewNamed(name string, n *Node) *Node {
	n.Name = name
	return n
}

// NewOp constructs an operator node (an SDNode application, or the special
// "set"/"implicit" pseudo-operators) over the given children.
func NewOp(operator string, types []ValueType, children ...*Node) *Node {
	return &Node{Operator: operator, Types: types, Children: children}
}
