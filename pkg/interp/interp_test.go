package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consensys/semagen/pkg/pattern"
	"github.com/consensys/semagen/pkg/sema"
)

// buildS1 mirrors the S1 scenario block from the flattener: GET_RC, GET_RC,
// ISD::ADD, PUT_RC.
func buildS1() []sema.Node {
	n0 := sema.Node{Opcode: sema.GetRC, Types: []pattern.ValueType{"i32"}}
	n0.AddOperand("1")

	n1 := sema.Node{Opcode: sema.GetRC, Types: []pattern.ValueType{"i32"}}
	n1.AddOperand("2")

	n2 := sema.Node{Opcode: "ISD::ADD", Types: []pattern.ValueType{"i32"}}
	n2.AddDefOperand(0)
	n2.AddDefOperand(1)

	n3 := sema.Node{Opcode: sema.PutRC, Types: []pattern.ValueType{pattern.Void}}
	n3.AddOperand("0")
	n3.AddDefOperand(2)

	return []sema.Node{n0, n1, n2, n3}
}

func TestExecuteBuildsSymbolicAddTerm(t *testing.T) {
	effects, err := Execute(buildS1())
	require.NoError(t, err)
	require.Len(t, effects, 1)

	eff := effects[0]
	assert.Equal(t, sema.PutRC, eff.Opcode)
	assert.Equal(t, "0", eff.Target)
	require.NotNil(t, eff.Value)
	assert.Equal(t, sema.Opcode("ISD::ADD"), eff.Value.Opcode)
	require.Len(t, eff.Value.Args, 2)
	assert.Equal(t, sema.GetRC, eff.Value.Args[0].Opcode)
	assert.Equal(t, sema.GetRC, eff.Value.Args[1].Opcode)
}

func TestExecuteImplicitProducesNoValue(t *testing.T) {
	n := sema.Node{Opcode: sema.Implicit, Types: []pattern.ValueType{pattern.Void}}
	n.AddOperand("X::EFLAGS")

	effects, err := Execute([]sema.Node{n})
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Nil(t, effects[0].Value)
	assert.Equal(t, "X::EFLAGS", effects[0].Target)
}

func TestExecuteDoesNotMisreadLiteralOperandAsDefNo(t *testing.T) {
	// GET_RC's own operand is an MIOperandNo, never a DefNo back-reference.
	// Once two defs exist, a third GET_RC whose MIOperandNo happens to equal
	// "1" must not be read as a reference to defs[1].
	n0 := sema.Node{Opcode: sema.GetRC, Types: []pattern.ValueType{"i32"}}
	n0.AddOperand("5")

	n1 := sema.Node{Opcode: sema.GetRC, Types: []pattern.ValueType{"i32"}}
	n1.AddOperand("7")

	n2 := sema.Node{Opcode: sema.GetRC, Types: []pattern.ValueType{"i32"}}
	n2.AddOperand("1")

	n3 := sema.Node{Opcode: sema.PutRC, Types: []pattern.ValueType{pattern.Void}}
	n3.AddOperand("0")
	n3.AddDefOperand(2)

	effects, err := Execute([]sema.Node{n0, n1, n2, n3})
	require.NoError(t, err)
	require.Len(t, effects, 1)

	value := effects[0].Value
	require.NotNil(t, value)
	assert.Equal(t, sema.GetRC, value.Opcode)
	assert.Equal(t, []string{"1"}, value.Operands)
	assert.Empty(t, value.Args, "GET_RC's own MIOperandNo must never be treated as a DefNo reference")
}

func TestExecuteRejectsDanglingDefNo(t *testing.T) {
	n := sema.Node{Opcode: sema.PutRC, Types: []pattern.ValueType{pattern.Void}}
	n.AddOperand("0")
	n.AddDefOperand(5)

	_, err := Execute([]sema.Node{n})
	assert.Error(t, err)
}
