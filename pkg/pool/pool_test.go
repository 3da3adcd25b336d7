package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternAssignsDenseIndicesStartingAtOne(t *testing.T) {
	p := New()

	assert.Equal(t, uint32(1), p.Intern(100))
	assert.Equal(t, uint32(2), p.Intern(200))
	assert.Equal(t, uint32(1), p.Intern(100), "re-interning an already-seen value must return the same index")
	assert.Equal(t, 2, p.Len())
}

func TestEmitReservesIndexZero(t *testing.T) {
	p := New()
	p.Intern(42)
	p.Intern(7)

	out := p.Emit()

	assert.Len(t, out, 3)
	assert.Equal(t, uint64(0), out[0])
	assert.Equal(t, uint64(42), out[1])
	assert.Equal(t, uint64(7), out[2])
}

func TestEmptyPoolEmitsOnlySentinel(t *testing.T) {
	assert.Equal(t, []uint64{0}, New().Emit())
}
