package ledger

import (
	"errors"
	"fmt"

	"github.com/blockberries/ledger/types"
)

// DecodeError reports transaction bytes the codec could not decode.
// Raw carries the offending bytes so the client can diagnose and
// resubmit.
type DecodeError struct {
	Raw   []byte
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode transaction %x: %v", e.Raw, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// NewDecodeError creates a DecodeError holding a copy of raw.
func NewDecodeError(raw []byte, cause error) *DecodeError {
	return &DecodeError{Raw: append([]byte(nil), raw...), Cause: cause}
}

// NotIncrementalError reports a transaction whose counter is not the
// next expected value.
type NotIncrementalError struct {
	Expected uint64
	Got      uint64
}

func (e *NotIncrementalError) Error() string {
	return fmt.Sprintf("count must be incremental: expected %d, got %d", e.Expected, e.Got)
}

// KeypairGenerationError reports a failure to generate a genesis
// validator keypair. It is fatal to chain initialization.
type KeypairGenerationError struct {
	// Index of the validator whose keypair failed.
	Index int
	Err   error
}

func (e *KeypairGenerationError) Error() string {
	return fmt.Sprintf("generate keypair for validator %d: %v", e.Index, e.Err)
}

func (e *KeypairGenerationError) Unwrap() error { return e.Err }

// AsDecode checks whether err is a DecodeError and returns it.
func AsDecode(err error) (*DecodeError, bool) {
	var d *DecodeError
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// AsNotIncremental checks whether err is a NotIncrementalError and
// returns it.
func AsNotIncremental(err error) (*NotIncrementalError, bool) {
	var n *NotIncrementalError
	if errors.As(err, &n) {
		return n, true
	}
	return nil, false
}

// AsKeypairGeneration checks whether err is a KeypairGenerationError
// and returns it.
func AsKeypairGeneration(err error) (*KeypairGenerationError, bool) {
	var k *KeypairGenerationError
	if errors.As(err, &k) {
		return k, true
	}
	return nil, false
}

// ResultFromError converts a transaction verdict into its wire form.
// A nil error yields CodeOK. Errors outside the transaction taxonomy
// are not verdicts and must be handled by the caller.
func ResultFromError(err error) (types.TxResult, bool) {
	if err == nil {
		return types.TxResult{Code: types.CodeOK}, true
	}
	if d, ok := AsDecode(err); ok {
		return types.TxResult{Code: types.CodeDecode, Info: d.Error(), Raw: d.Raw}, true
	}
	if n, ok := AsNotIncremental(err); ok {
		return types.TxResult{
			Code:     types.CodeNotIncremental,
			Info:     n.Error(),
			Expected: n.Expected,
			Got:      n.Got,
		}, true
	}
	return types.TxResult{}, false
}

// ErrorFromResult rebuilds the typed error carried by a TxResult.
func ErrorFromResult(r types.TxResult) error {
	switch r.Code {
	case types.CodeOK:
		return nil
	case types.CodeDecode:
		return &DecodeError{Raw: r.Raw, Cause: errors.New(r.Info)}
	case types.CodeNotIncremental:
		return &NotIncrementalError{Expected: r.Expected, Got: r.Got}
	default:
		return fmt.Errorf("ledger: unknown result code %d: %s", r.Code, r.Info)
	}
}
