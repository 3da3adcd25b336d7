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

// Package descfile deserializes a target description document into a
// target.Context. The declarative-records parser that would normally
// produce a RecordKeeper is explicitly out of scope for this module (see
// spec.md §1); this package is the minimal boundary adapter that plays the
// same role pkg/binfile plays for go-corset's own hir.Schema, using the
// standard encoding/json package (go-corset itself reaches for
// encoding/json, not a third-party codec, for this one-shot deserialization
// role).
package descfile

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/consensys/semagen/pkg/emit"
	"github.com/consensys/semagen/pkg/pattern"
	"github.com/consensys/semagen/pkg/target"
)

// document is the on-disk JSON shape of a target description.
type document struct {
	Target       string         `json:"target"`
	SDNodes      []sdnodeDoc    `json:"sdnodes"`
	Equivalences []equivDoc     `json:"equivalences"`
	Instructions []instDoc      `json:"instructions"`
	Semantics    []semanticsDoc `json:"semantics,omitempty"`
}

// semanticsDoc is one record of the "Semantics" marker class (§4.4 step 3):
// an explicit pattern list to flatten in place of Inst's own declared
// trees. Inst names an instruction by its "name" field, resolved against
// Instructions by the decoder, since a document has no stable enum
// numbering of its own to reference directly.
type semanticsDoc struct {
	Inst    string     `json:"inst"`
	Pattern []*nodeDoc `json:"pattern"`
}

type sdnodeDoc struct {
	Opcode     string `json:"opcode"`
	NumResults uint   `json:"numResults"`
}

type equivDoc struct {
	TargetSpecific    sdnodeDoc `json:"targetSpecific"`
	TargetIndependent sdnodeDoc `json:"targetIndependent"`
}

type instDoc struct {
	Name        string       `json:"name"`
	Namespace   string       `json:"namespace"`
	CodeGenOnly bool         `json:"codeGenOnly"`
	Operands    []operandDoc `json:"operands"`
	Trees       []*nodeDoc   `json:"trees"`
}

type operandDoc struct {
	Name        string    `json:"name"`
	MIOperandNo uint      `json:"miOperandNo"`
	OperandType string    `json:"operandType"`
	Rec         recordDoc `json:"rec"`
}

type recordDoc struct {
	Kind    string     `json:"kind"`
	Name    string     `json:"name"`
	Wrapped *recordDoc `json:"wrapped,omitempty"`
}

type nodeDoc struct {
	Name     string     `json:"name,omitempty"`
	Types    []string   `json:"types,omitempty"`
	Leaf     *leafDoc   `json:"leaf,omitempty"`
	Operator string     `json:"operator,omitempty"`
	Children []*nodeDoc `json:"children,omitempty"`
}

type leafDoc struct {
	IsInt bool       `json:"isInt"`
	Int   int64      `json:"int"`
	Def   *recordDoc `json:"def,omitempty"`
}

// Decode reads a target description document and builds a target.Context
// from it, plus the explicit per-instruction pattern overrides declared by
// its "semantics" array (the Semantics marker class, §4.4 step 3), in
// declared order.
func Decode(r io.Reader) (*target.Context, []emit.SemanticsByOpcode, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("descfile: %w", err)
	}

	nodes := make([]target.SDNodeRecord, len(doc.SDNodes))
	for i, n := range doc.SDNodes {
		nodes[i] = target.SDNodeRecord{Opcode: n.Opcode, NumResults: n.NumResults}
	}

	equivs := make([]target.SDNodeEquiv, len(doc.Equivalences))
	for i, e := range doc.Equivalences {
		equivs[i] = target.SDNodeEquiv{
			TargetSpecific:    target.SDNodeRecord{Opcode: e.TargetSpecific.Opcode, NumResults: e.TargetSpecific.NumResults},
			TargetIndependent: target.SDNodeRecord{Opcode: e.TargetIndependent.Opcode, NumResults: e.TargetIndependent.NumResults},
		}
	}

	insts := make([]target.Instruction, len(doc.Instructions))
	enumByName := make(map[string]uint, len(doc.Instructions))

	for i, id := range doc.Instructions {
		operands := make([]target.OperandInfo, len(id.Operands))

		for j, od := range id.Operands {
			rec, err := decodeRecord(&od.Rec)
			if err != nil {
				return nil, nil, fmt.Errorf("descfile: instruction %q operand %q: %w", id.Name, od.Name, err)
			}

			operands[j] = target.OperandInfo{
				Name:        od.Name,
				MIOperandNo: od.MIOperandNo,
				OperandType: od.OperandType,
				Rec:         rec,
			}
		}

		trees := make([]*pattern.Node, len(id.Trees))

		for j, td := range id.Trees {
			n, err := decodeNode(td)
			if err != nil {
				return nil, nil, fmt.Errorf("descfile: instruction %q tree %d: %w", id.Name, j, err)
			}

			trees[j] = n
		}

		insts[i] = target.Instruction{
			Name:        id.Name,
			Namespace:   id.Namespace,
			CodeGenOnly: id.CodeGenOnly,
			Operands:    operands,
			Trees:       trees,
		}

		enumByName[id.Name] = uint(i)
	}

	markers := make([]emit.SemanticsByOpcode, 0, len(doc.Semantics))

	for _, sd := range doc.Semantics {
		enum, ok := enumByName[sd.Inst]
		if !ok {
			return nil, nil, fmt.Errorf("descfile: semantics record references unknown instruction %q", sd.Inst)
		}

		pat := make([]*pattern.Node, len(sd.Pattern))

		for j, td := range sd.Pattern {
			n, err := decodeNode(td)
			if err != nil {
				return nil, nil, fmt.Errorf("descfile: semantics record for %q tree %d: %w", sd.Inst, j, err)
			}

			pat[j] = n
		}

		markers = append(markers, emit.SemanticsByOpcode{InstEnum: enum, Pattern: pat})
	}

	return target.NewContext(doc.Target, insts, nodes, equivs), markers, nil
}

func decodeRecord(d *recordDoc) (*pattern.Record, error) {
	if d == nil || d.Name == "" {
		return nil, nil
	}

	var kind pattern.Kind

	switch d.Kind {
	case "Operand":
		kind = pattern.KindOperand
	case "RegisterOperand":
		kind = pattern.KindRegisterOperand
	case "RegisterClass":
		kind = pattern.KindRegisterClass
	case "Register":
		kind = pattern.KindRegister
	default:
		return nil, fmt.Errorf("unknown record kind %q", d.Kind)
	}

	rec := &pattern.Record{Kind: kind, Name: d.Name}

	if d.Wrapped != nil {
		wrapped, err := decodeRecord(d.Wrapped)
		if err != nil {
			return nil, err
		}

		rec.Wrapped = wrapped
	}

	return rec, nil
}

func decodeNode(d *nodeDoc) (*pattern.Node, error) {
	if d == nil {
		return nil, nil
	}

	n := &pattern.Node{Name: d.Name, Operator: d.Operator}

	for _, t := range d.Types {
		n.Types = append(n.Types, pattern.ValueType(t))
	}

	if d.Leaf != nil {
		leaf := &pattern.Leaf{IsInt: d.Leaf.IsInt, Int: d.Leaf.Int}

		if d.Leaf.Def != nil {
			def, err := decodeRecord(d.Leaf.Def)
			if err != nil {
				return nil, err
			}

			leaf.Def = def
		}

		n.Leaf = leaf
	}

	for _, c := range d.Children {
		child, err := decodeNode(c)
		if err != nil {
			return nil, err
		}

		n.Children = append(n.Children, child)
	}

	return n, nil
}
