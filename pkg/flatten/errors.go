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
package flatten

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the fatal conditions the flattener can encounter:
// FlattenInstruction returns any of them as an error and its semantics are
// discarded, as opposed to Diagnostic (see diagnostic.go), which is
// recoverable per-instruction. emit.Run logs such an error and continues
// with the next instruction; it does not stop the run.
type ErrorKind int

// The fatal error kinds.
const (
	ErrUnknownOperator ErrorKind = iota
	ErrUnknownOperandType
	ErrUnknownLeaf
	ErrMissingNamedOperand
	ErrDroppedNonLeaf
	ErrDroppedNonRegister
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnknownOperator:
		return "UnknownOperator"
	case ErrUnknownOperandType:
		return "UnknownOperandType"
	case ErrUnknownLeaf:
		return "UnknownLeaf"
	case ErrMissingNamedOperand:
		return "MissingNamedOperand"
	case ErrDroppedNonLeaf:
		return "DroppedNonLeaf"
	case ErrDroppedNonRegister:
		return "DroppedNonRegister"
	default:
		return "UnknownError"
	}
}

// Error is a structured flattener error: it retains the error's kind and the
// instruction it occurred in, instead of collapsing straight to a string.
type Error struct {
	Kind        ErrorKind
	Instruction string
	Message     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Instruction, e.Kind, e.Message)
}

// Is reports whether target is an *Error of the same Kind, so that
// errors.Is(err, &Error{Kind: ErrUnknownOperator}) matches any error of that
// kind regardless of instruction or message.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Kind == e.Kind
}

func newError(kind ErrorKind, inst, format string, args ...interface{}) error {
	return &Error{Kind: kind, Instruction: inst, Message: fmt.Sprintf(format, args...)}
}

// errSetArityMismatch is the internal sentinel used to unwind out of a
// malformed 'set' node without treating it as a fatal error: the caller
// converts it into a recorded Diagnostic and an empty InstructionSemantics.
var errSetArityMismatch = errors.New("set: arity mismatch")
