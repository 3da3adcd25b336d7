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

// Package emit implements the global driver that walks a target.Context,
// invokes the flattener per instruction, assigns stream offsets, and writes
// the three output tables: the semantics stream, the opcode-to-offset
// table, and the constant pool.
package emit

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/consensys/semagen/pkg/flatten"
	"github.com/consensys/semagen/pkg/pattern"
	"github.com/consensys/semagen/pkg/pool"
	"github.com/consensys/semagen/pkg/sema"
	"github.com/consensys/semagen/pkg/target"
)

// SemanticsByOpcode mirrors one record derived from the "Semantics" marker
// class (§4.4 step 3): its Inst field resolves to a machine instruction by
// enum index, and its Pattern field is an explicit DAG list to flatten in
// place of whatever pattern (if any) that instruction itself declares.
type SemanticsByOpcode struct {
	InstEnum uint
	Pattern  []*pattern.Node
}

// ExplicitOverrides resolves a list of Semantics markers, in their declared
// order (§5 Determinism: "use the declarative-records parser's declared
// order"), into the explicitOverrides map Run expects: one synthetic
// Instruction per marker, identical to the target instruction except for
// its pattern trees.
func ExplicitOverrides(ctx *target.Context, markers []SemanticsByOpcode) map[uint][]*target.Instruction {
	overrides := make(map[uint][]*target.Instruction, len(markers))

	for _, m := range markers {
		base := *ctx.Instruction(m.InstEnum)
		base.Trees = m.Pattern
		overrides[m.InstEnum] = append(overrides[m.InstEnum], &base)
	}

	return overrides
}

// Result is the outcome of a full emission run: the three tables, plus any
// recoverable diagnostics collected along the way.
type Result struct {
	// InstSemantics is the full semantics stream, slot 0 is the sentinel
	// empty instruction (a single END_OF_INSTRUCTION node).
	InstSemantics []sema.Node
	// OpcodeToSemaIdx holds, for each instruction in enum order, the
	// starting offset of its block in InstSemantics, or 0 if unassigned.
	OpcodeToSemaIdx []int
	// ConstantArray holds the interned constant pool, index 0 reserved.
	ConstantArray []uint64
	// Diagnostics collects every recoverable per-instruction diagnostic
	// encountered (§7).
	Diagnostics []flatten.Diagnostic
}

// Run executes the full Emitter pipeline (§4.4) over ctx: sentinel
// installation, the ParseSemantics phase (explicit per-instruction pattern
// overrides), the pattern-fallback phase, and offset assignment.
// explicitOverrides maps an instruction's enum index to the pattern trees
// that should be used in place of its own declared trees; this implements
// the "Semantics marker class" phase (§4.4 step 3) without requiring a
// separate declarative-records parser (out of scope per spec).
func Run(ctx *target.Context, explicitOverrides map[uint][]*target.Instruction) Result {
	var (
		constants = pool.New()
		// instSemas[e] holds the flattened semantics for instruction e, if
		// any was produced. Slot semantics for "no semantics yet" is a nil
		// entry, distinct from an explicitly-empty (diagnostic) result.
		instSemas   = make([]*sema.InstructionSemantics, ctx.NumInstructions())
		diagnostics []flatten.Diagnostic
	)

	log.WithField("instructions", ctx.NumInstructions()).Info("starting semantics emission")

	// Step 3: ParseSemantics phase — explicit per-instruction descriptions
	// take priority over an instruction's own declared pattern. Map
	// iteration order is randomized per run, so the enum keys are sorted
	// first: two runs over the same explicitOverrides must assign identical
	// DefNos/pool indices (§5 Determinism, property 7).
	enums := make([]uint, 0, len(explicitOverrides))
	for enum := range explicitOverrides {
		enums = append(enums, enum)
	}

	sort.Slice(enums, func(i, j int) bool { return enums[i] < enums[j] })

	for _, enum := range enums {
		for _, override := range explicitOverrides[enum] {
			s, diags, err := flatten.FlattenInstruction(ctx, override, constants)
			diagnostics = append(diagnostics, diags...)

			if err != nil {
				log.WithError(err).WithField("instruction", override.Name).Error("fatal flatten error")
				continue
			}

			instSemas[enum] = &s
		}
	}

	// Step 4: pattern-fallback phase — every remaining instruction that
	// declares a pattern and is not code-gen-only.
	for i := 0; i < ctx.NumInstructions(); i++ {
		if instSemas[i] != nil {
			continue
		}

		inst := ctx.Instruction(uint(i))
		if !inst.HasPattern() || inst.CodeGenOnly {
			continue
		}

		s, diags, err := flatten.FlattenInstruction(ctx, inst, constants)
		diagnostics = append(diagnostics, diags...)

		if err != nil {
			log.WithError(err).WithField("instruction", inst.Name).Error("fatal flatten error")
			continue
		}

		instSemas[i] = &s
	}

	// Step 5: offset assignment.
	var (
		stream  []sema.Node
		offsets = make([]int, ctx.NumInstructions())
	)

	stream = append(stream, sema.Node{Opcode: sema.EndOfInstruction})

	for i := 0; i < ctx.NumInstructions(); i++ {
		s := instSemas[i]
		if s == nil || s.Empty() {
			continue
		}

		offsets[i] = len(stream)
		stream = append(stream, s.Nodes...)
		stream = append(stream, sema.Node{Opcode: sema.EndOfInstruction})
	}

	log.WithFields(log.Fields{
		"stream_nodes":  len(stream),
		"constant_pool": constants.Len(),
		"diagnostics":   len(diagnostics),
	}).Info("semantics emission complete")

	return Result{
		InstSemantics:   stream,
		OpcodeToSemaIdx: offsets,
		ConstantArray:   constants.Emit(),
		Diagnostics:     diagnostics,
	}
}

// WriteText renders the three tables as the fixed text format (§6 Outputs):
// a generated-file header comment, a
// `namespace llvm { namespace <name> { namespace { ... } } }` wrapper, and
// the three static arrays.
func WriteText(w io.Writer, ctx *target.Context, res Result) error {
	var b strings.Builder

	b.WriteString("// Generated file. Do not edit.\n")
	b.WriteString("// Target Instruction Semantics\n\n")
	fmt.Fprintf(&b, "namespace llvm {\nnamespace %s {\nnamespace {\n\n", ctx.Name)

	b.WriteString("const unsigned InstSemantics[] = {\n")
	writeStream(&b, ctx, res)
	b.WriteString("};\n\n")

	b.WriteString("const unsigned OpcodeToSemaIdx[] = {\n")

	for i := 0; i < ctx.NumInstructions(); i++ {
		fmt.Fprintf(&b, "  %d, \t// %s\n", res.OpcodeToSemaIdx[i], ctx.Instruction(uint(i)).Name)
	}

	b.WriteString("};\n\n")

	b.WriteString("const uint64_t ConstantArray[] = {\n")

	for _, c := range res.ConstantArray {
		fmt.Fprintf(&b, "  %sU,\n", strconv.FormatUint(c, 10))
	}

	b.WriteString("};\n\n")

	b.WriteString("\n} // end anonymous namespace\n")
	fmt.Fprintf(&b, "} // end namespace %s\n", ctx.Name)
	b.WriteString("} // end namespace llvm\n")

	_, err := io.WriteString(w, b.String())

	return err
}

func writeStream(b *strings.Builder, ctx *target.Context, res Result) {
	// Re-derive block boundaries from the offset table rather than
	// re-walking instructions, so the writer stays a pure function of
	// Result — useful for the determinism property test (§5/§8 property 7).
	nameAt := make(map[int]string, ctx.NumInstructions())

	for i := 0; i < ctx.NumInstructions(); i++ {
		if off := res.OpcodeToSemaIdx[i]; off != 0 {
			nameAt[off] = ctx.Instruction(uint(i)).Name
		}
	}

	fmt.Fprintf(b, "  %s\n", sema.Node{Opcode: sema.EndOfInstruction}.Line())

	for i := 1; i < len(res.InstSemantics); i++ {
		if name, ok := nameAt[i]; ok {
			fmt.Fprintf(b, "  // %s\n", name)
		}

		fmt.Fprintf(b, "  %s\n", res.InstSemantics[i].Line())
	}
}
