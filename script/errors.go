package script

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a script failure class.
type ErrorCode string

const (
	SCRIPT_ERR_TRUNCATED               ErrorCode = "SCRIPT_ERR_TRUNCATED"
	SCRIPT_ERR_UNKNOWN_OPCODE          ErrorCode = "SCRIPT_ERR_UNKNOWN_OPCODE"
	SCRIPT_ERR_SCRIPT_TOO_LONG         ErrorCode = "SCRIPT_ERR_SCRIPT_TOO_LONG"
	SCRIPT_ERR_NON_MINIMAL_VARINT      ErrorCode = "SCRIPT_ERR_NON_MINIMAL_VARINT"
	SCRIPT_ERR_STACK_OVERFLOW          ErrorCode = "SCRIPT_ERR_STACK_OVERFLOW"
	SCRIPT_ERR_STACK_UNDERFLOW         ErrorCode = "SCRIPT_ERR_STACK_UNDERFLOW"
	SCRIPT_ERR_TYPE_MISMATCH           ErrorCode = "SCRIPT_ERR_TYPE_MISMATCH"
	SCRIPT_ERR_VERIFY_FAILED           ErrorCode = "SCRIPT_ERR_VERIFY_FAILED"
	SCRIPT_ERR_RETURN                  ErrorCode = "SCRIPT_ERR_RETURN"
	SCRIPT_ERR_UNBALANCED_CONDITIONAL  ErrorCode = "SCRIPT_ERR_UNBALANCED_CONDITIONAL"
	SCRIPT_ERR_INVALID_CONDITION       ErrorCode = "SCRIPT_ERR_INVALID_CONDITION"
	SCRIPT_ERR_ARITHMETIC_OVERFLOW     ErrorCode = "SCRIPT_ERR_ARITHMETIC_OVERFLOW"
	SCRIPT_ERR_VALUE_EXCEEDS_BOUNDS    ErrorCode = "SCRIPT_ERR_VALUE_EXCEEDS_BOUNDS"
	SCRIPT_ERR_MULTISIG_PARAMS         ErrorCode = "SCRIPT_ERR_MULTISIG_PARAMS"
	SCRIPT_ERR_RESIDUAL_STACK          ErrorCode = "SCRIPT_ERR_RESIDUAL_STACK"
	SCRIPT_ERR_NOT_A_PUBLIC_KEY        ErrorCode = "SCRIPT_ERR_NOT_A_PUBLIC_KEY"
	SCRIPT_ERR_NON_CANONICAL_SCALAR    ErrorCode = "SCRIPT_ERR_NON_CANONICAL_SCALAR"
	SCRIPT_ERR_BAD_STACK_ITEM          ErrorCode = "SCRIPT_ERR_BAD_STACK_ITEM"
	SCRIPT_ERR_HEIGHT_NOT_REACHED      ErrorCode = "SCRIPT_ERR_HEIGHT_NOT_REACHED"
	SCRIPT_ERR_STACK_HEIGHT_NOT_NUMBER ErrorCode = "SCRIPT_ERR_STACK_HEIGHT_NOT_NUMBER"
)

// FailureKind splits script failures into the two classes callers care
// about: deterministic failures that can never pass, and context failures
// that depend on the evaluation height and may pass later.
type FailureKind int

const (
	// KindFailure is a deterministic failure. The script will never pass
	// regardless of evaluation context.
	KindFailure FailureKind = iota
	// KindContextFailure depends on the chain height at evaluation time. A
	// mempool may retry such a transaction; block validation rejects it.
	KindContextFailure
)

// ScriptError is a typed script failure carrying its code and kind.
type ScriptError struct {
	Code   ErrorCode
	Kind   FailureKind
	Detail string
}

func (e *ScriptError) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// scripterr builds a deterministic failure.
func scripterr(code ErrorCode, format string, args ...any) *ScriptError {
	return &ScriptError{Code: code, Kind: KindFailure, Detail: fmt.Sprintf(format, args...)}
}

// ctxerr builds a context failure.
func ctxerr(code ErrorCode, format string, args ...any) *ScriptError {
	return &ScriptError{Code: code, Kind: KindContextFailure, Detail: fmt.Sprintf(format, args...)}
}

// IsContextFailure reports whether err is a height-dependent script failure.
func IsContextFailure(err error) bool {
	var se *ScriptError
	return errors.As(err, &se) && se.Kind == KindContextFailure
}

// CodeOf extracts the script error code, or "" for non-script errors.
func CodeOf(err error) ErrorCode {
	var se *ScriptError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
