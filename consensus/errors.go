package consensus

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	TX_ERR_PARSE                ErrorCode = "TX_ERR_PARSE"
	TX_ERR_VALUE_OVERFLOW       ErrorCode = "TX_ERR_VALUE_OVERFLOW"
	TX_ERR_BALANCE_INVALID      ErrorCode = "TX_ERR_BALANCE_INVALID"
	TX_ERR_KERNEL_SIG_INVALID   ErrorCode = "TX_ERR_KERNEL_SIG_INVALID"
	TX_ERR_MISSING_UTXO         ErrorCode = "TX_ERR_MISSING_UTXO"
	TX_ERR_INPUT_MISMATCH       ErrorCode = "TX_ERR_INPUT_MISMATCH"
	TX_ERR_TIMELOCK_NOT_MET     ErrorCode = "TX_ERR_TIMELOCK_NOT_MET"
	TX_ERR_DUPLICATE_INPUT      ErrorCode = "TX_ERR_DUPLICATE_INPUT"
	TX_ERR_DUPLICATE_OUTPUT     ErrorCode = "TX_ERR_DUPLICATE_OUTPUT"
	TX_ERR_RANGE_PROOF_INVALID  ErrorCode = "TX_ERR_RANGE_PROOF_INVALID"
	TX_ERR_METADATA_SIG_INVALID ErrorCode = "TX_ERR_METADATA_SIG_INVALID"
	TX_ERR_SCRIPT_FAILURE       ErrorCode = "TX_ERR_SCRIPT_FAILURE"
	TX_ERR_SCRIPT_PENDING       ErrorCode = "TX_ERR_SCRIPT_PENDING"
	TX_ERR_SCRIPT_SIG_INVALID   ErrorCode = "TX_ERR_SCRIPT_SIG_INVALID"
	TX_ERR_OFFSET_INVALID       ErrorCode = "TX_ERR_OFFSET_INVALID"
	TX_ERR_WEIGHT_EXCEEDED      ErrorCode = "TX_ERR_WEIGHT_EXCEEDED"
	TX_ERR_SCRIPT_TOO_LARGE     ErrorCode = "TX_ERR_SCRIPT_TOO_LARGE"
	TX_ERR_COINBASE_FORBIDDEN   ErrorCode = "TX_ERR_COINBASE_FORBIDDEN"
	TX_ERR_BURN_MISMATCH        ErrorCode = "TX_ERR_BURN_MISMATCH"

	BLOCK_ERR_PARSE             ErrorCode = "BLOCK_ERR_PARSE"
	BLOCK_ERR_HEADER_INVALID    ErrorCode = "BLOCK_ERR_HEADER_INVALID"
	BLOCK_ERR_POW_INVALID       ErrorCode = "BLOCK_ERR_POW_INVALID"
	BLOCK_ERR_WEIGHT_EXCEEDED   ErrorCode = "BLOCK_ERR_WEIGHT_EXCEEDED"
	BLOCK_ERR_COINBASE_INVALID  ErrorCode = "BLOCK_ERR_COINBASE_INVALID"
	BLOCK_ERR_OFFSET_MISMATCH   ErrorCode = "BLOCK_ERR_OFFSET_MISMATCH"
	BLOCK_ERR_DUPLICATE_KERNEL  ErrorCode = "BLOCK_ERR_DUPLICATE_KERNEL"
	BLOCK_ERR_UTXO_LOOKUP       ErrorCode = "BLOCK_ERR_UTXO_LOOKUP"
	BLOCK_ERR_CONFIG_INVALID    ErrorCode = "BLOCK_ERR_CONFIG_INVALID"
)

type TxError struct {
	Code ErrorCode
	Msg  string
}

func (e *TxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func txerr(code ErrorCode, msg string) error {
	return &TxError{Code: code, Msg: msg}
}

func txerrf(code ErrorCode, format string, args ...any) error {
	return &TxError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// ErrCodeOf extracts the error code, or "" for foreign errors.
func ErrCodeOf(err error) ErrorCode {
	var te *TxError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
