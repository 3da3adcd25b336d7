package flatten

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consensys/semagen/pkg/pattern"
	"github.com/consensys/semagen/pkg/pool"
	"github.com/consensys/semagen/pkg/sema"
	"github.com/consensys/semagen/pkg/target"
)

func gprClass() *pattern.Record {
	return &pattern.Record{Kind: pattern.KindRegisterClass, Name: "GPR"}
}

func reg(name string) *pattern.Record {
	return &pattern.Record{Kind: pattern.KindRegister, Name: name}
}

func namedGPR(name string) *pattern.Node {
	return pattern.NewNamed(name, &pattern.Node{Types: []pattern.ValueType{"i32"}})
}

func newBaseCtx(insts ...target.Instruction) *target.Context {
	nodes := []target.SDNodeRecord{
		{Opcode: "ISD::ADD", NumResults: 1},
		{Opcode: "ISD::LOAD", NumResults: 1},
	}

	return target.NewContext("X", insts, nodes, nil)
}

// S1 — Simple binary add: (set GPR:$dst, (add GPR:$a, GPR:$b))
func TestScenarioS1SimpleBinaryAdd(t *testing.T) {
	inst := target.Instruction{
		Name:      "ADDrr",
		Namespace: "X",
		Operands: []target.OperandInfo{
			{Name: "dst", MIOperandNo: 0, Rec: gprClass()},
			{Name: "a", MIOperandNo: 1, Rec: gprClass()},
			{Name: "b", MIOperandNo: 2, Rec: gprClass()},
		},
	}
	inst.Trees = []*pattern.Node{
		pattern.NewOp("set", nil,
			namedGPR("dst"),
			pattern.NewOp("ISD::ADD", []pattern.ValueType{"i32"}, namedGPR("a"), namedGPR("b")),
		),
	}

	ctx := newBaseCtx(inst)
	s, diags, err := FlattenInstruction(ctx, &inst, pool.New())
	require.NoError(t, err)
	assert.Empty(t, diags)

	require.Len(t, s.Nodes, 4)
	assert.Equal(t, sema.GetRC, s.Nodes[0].Opcode)
	assert.Equal(t, []string{"1"}, s.Nodes[0].Operands)
	assert.Equal(t, sema.GetRC, s.Nodes[1].Opcode)
	assert.Equal(t, []string{"2"}, s.Nodes[1].Operands)
	assert.Equal(t, sema.Opcode("ISD::ADD"), s.Nodes[2].Opcode)
	assert.Equal(t, []string{"0", "1"}, s.Nodes[2].Operands)
	assert.Equal(t, sema.PutRC, s.Nodes[3].Opcode)
	assert.Equal(t, []string{"0", "2"}, s.Nodes[3].Operands)
}

// S2 — Immediate with constant pool: a shared pool is reused across
// instructions for the same literal.
func TestScenarioS2ImmediateSharesConstantPool(t *testing.T) {
	build := func(name string) target.Instruction {
		inst := target.Instruction{
			Name:      name,
			Namespace: "X",
			Operands: []target.OperandInfo{
				{Name: "dst", MIOperandNo: 0, Rec: gprClass()},
				{Name: "a", MIOperandNo: 1, Rec: gprClass()},
			},
		}
		inst.Trees = []*pattern.Node{
			pattern.NewOp("set", nil,
				namedGPR("dst"),
				pattern.NewOp("ISD::ADD", []pattern.ValueType{"i32"}, namedGPR("a"), pattern.NewLeafInt(1234, "i32")),
			),
		}

		return inst
	}

	instA := build("ADDI_A")
	instB := build("ADDI_B")
	ctx := newBaseCtx(instA, instB)
	constants := pool.New()

	sA, _, err := FlattenInstruction(ctx, &instA, constants)
	require.NoError(t, err)

	sB, _, err := FlattenInstruction(ctx, &instB, constants)
	require.NoError(t, err)

	require.Len(t, sA.Nodes, 4)
	assert.Equal(t, sema.MovConstant, sA.Nodes[1].Opcode)
	assert.Equal(t, sA.Nodes[1].Operands, sB.Nodes[1].Operands, "the same literal must reuse the same pool index")
	assert.Equal(t, 1, constants.Len())
}

// S3 — Duplicate named operand: (set GPR:$dst, (add GPR:$a, GPR:$a))
func TestScenarioS3DuplicateNamedOperandDedups(t *testing.T) {
	inst := target.Instruction{
		Name:      "ADDself",
		Namespace: "X",
		Operands: []target.OperandInfo{
			{Name: "dst", MIOperandNo: 0, Rec: gprClass()},
			{Name: "a", MIOperandNo: 1, Rec: gprClass()},
		},
	}
	inst.Trees = []*pattern.Node{
		pattern.NewOp("set", nil,
			namedGPR("dst"),
			pattern.NewOp("ISD::ADD", []pattern.ValueType{"i32"}, namedGPR("a"), namedGPR("a")),
		),
	}

	ctx := newBaseCtx(inst)
	s, _, err := FlattenInstruction(ctx, &inst, pool.New())
	require.NoError(t, err)

	getRCCount := 0

	for _, n := range s.Nodes {
		if n.Opcode == sema.GetRC {
			getRCCount++
		}
	}

	assert.Equal(t, 1, getRCCount, "exactly one GET_RC for the doubly-referenced operand")

	var add sema.Node

	for _, n := range s.Nodes {
		if n.Opcode == "ISD::ADD" {
			add = n
		}
	}

	assert.Equal(t, []string{"0", "0"}, add.Operands)
}

// S4 — Explicit register: (set EAX, (load GPR:$p))
func TestScenarioS4ExplicitRegisterTarget(t *testing.T) {
	inst := target.Instruction{
		Name:      "LOADtoEAX",
		Namespace: "X",
		Operands: []target.OperandInfo{
			{Name: "p", MIOperandNo: 0, Rec: gprClass()},
		},
	}
	inst.Trees = []*pattern.Node{
		pattern.NewOp("set", nil,
			pattern.NewLeafDef(reg("EAX")),
			pattern.NewOp("ISD::LOAD", []pattern.ValueType{"i32"}, namedGPR("p")),
		),
	}

	ctx := newBaseCtx(inst)
	s, _, err := FlattenInstruction(ctx, &inst, pool.New())
	require.NoError(t, err)

	require.Len(t, s.Nodes, 3)
	assert.Equal(t, sema.PutReg, s.Nodes[2].Opcode)
	assert.Equal(t, []string{"X::EAX", "1"}, s.Nodes[2].Operands)
}

// S5 — Equivalence with dropped flags.
func TestScenarioS5EquivalenceDropsFlagsToImplicit(t *testing.T) {
	inst := target.Instruction{
		Name:      "ADDflag",
		Namespace: "X",
		Operands: []target.OperandInfo{
			{Name: "dst", MIOperandNo: 0, Rec: gprClass()},
			{Name: "a", MIOperandNo: 1, Rec: gprClass()},
			{Name: "b", MIOperandNo: 2, Rec: gprClass()},
		},
	}
	inst.Trees = []*pattern.Node{
		pattern.NewOp("set", nil,
			namedGPR("dst"),
			pattern.NewLeafDef(reg("EFLAGS")),
			pattern.NewOp("X86add_flag", []pattern.ValueType{"i32", "i32"}, namedGPR("a"), namedGPR("b")),
		),
	}

	ctx := target.NewContext("X", []target.Instruction{inst},
		[]target.SDNodeRecord{{Opcode: "ISD::ADD", NumResults: 1}},
		[]target.SDNodeEquiv{{
			TargetSpecific:    target.SDNodeRecord{Opcode: "X86add_flag", NumResults: 2},
			TargetIndependent: target.SDNodeRecord{Opcode: "ISD::ADD", NumResults: 1},
		}})

	s, _, err := FlattenInstruction(ctx, &inst, pool.New())
	require.NoError(t, err)

	var add, implicit *sema.Node

	for i := range s.Nodes {
		switch s.Nodes[i].Opcode {
		case "ISD::ADD":
			add = &s.Nodes[i]
		case sema.Implicit:
			implicit = &s.Nodes[i]
		}
	}

	require.NotNil(t, add)
	assert.Len(t, add.Types, 1, "the equivalence strips the trailing flag result")

	require.NotNil(t, implicit)
	assert.Equal(t, []string{"X::EFLAGS"}, implicit.Operands)
}

// S6 — CUSTOM_OP for a non-immediate Operand.
func TestScenarioS6CustomOpForNonImmediateOperand(t *testing.T) {
	addrRec := &pattern.Record{Kind: pattern.KindOperand, Name: "MemOperand"}
	inst := target.Instruction{
		Name:      "LOADmem",
		Namespace: "X",
		Operands: []target.OperandInfo{
			{Name: "addr", MIOperandNo: 3, OperandType: "OPERAND_MEMORY", Rec: addrRec},
		},
	}
	inst.Trees = []*pattern.Node{
		pattern.NewOp("set", nil,
			pattern.NewLeafDef(reg("EAX")),
			pattern.NewOp("ISD::LOAD", []pattern.ValueType{"i32"}, pattern.NewNamed("addr", &pattern.Node{Types: []pattern.ValueType{"i32"}})),
		),
	}

	ctx := newBaseCtx(inst)
	s, _, err := FlattenInstruction(ctx, &inst, pool.New())
	require.NoError(t, err)

	var custom *sema.Node

	for i := range s.Nodes {
		if s.Nodes[i].Opcode == sema.CustomOp {
			custom = &s.Nodes[i]
		}
	}

	require.NotNil(t, custom)
	assert.Equal(t, []string{"X::OpTypes::MemOperand", "3"}, custom.Operands)
}

func TestSetArityMismatchIsRecoverable(t *testing.T) {
	inst := target.Instruction{
		Name:      "BadSet",
		Namespace: "X",
		Operands: []target.OperandInfo{
			{Name: "dst", MIOperandNo: 0, Rec: gprClass()},
		},
	}
	inst.Trees = []*pattern.Node{
		pattern.NewOp("set", nil,
			namedGPR("dst"),
			pattern.NewOp("ISD::ADD", []pattern.ValueType{"i32", "i32"}, pattern.NewLeafInt(1, "i32"), pattern.NewLeafInt(2, "i32")),
		),
	}

	ctx := newBaseCtx(inst)
	s, diags, err := FlattenInstruction(ctx, &inst, pool.New())
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.True(t, s.Empty())
}

func TestUnknownOperatorIsFatal(t *testing.T) {
	inst := target.Instruction{Name: "Weird", Namespace: "X"}
	inst.Trees = []*pattern.Node{
		pattern.NewOp("set", nil,
			pattern.NewLeafDef(reg("EAX")),
			pattern.NewOp("NotARealOp", []pattern.ValueType{"i32"}),
		),
	}

	ctx := newBaseCtx(inst)
	_, _, err := FlattenInstruction(ctx, &inst, pool.New())
	require.Error(t, err)

	flattenErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrUnknownOperator, flattenErr.Kind)
}
