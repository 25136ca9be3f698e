package epidata

import "errors"

// Sentinel kinds for epidata errors. These allow errors.Is/As from callers.
var (
	ErrValidation = errors.New("invalid epidata parameters")
	ErrTransport  = errors.New("epidata transport failed")
	ErrDecode     = errors.New("epidata response decode failed")
)

// ValidationError is returned synchronously by endpoint methods when a
// required parameter is missing or two exclusive parameters are both set.
// Error returns the literal message so callers can match on it.
type ValidationError struct {
	Source string
	Msg    string
}

func (e *ValidationError) Error() string { return e.Msg }

// Unwrap makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Unwrap() error { return ErrValidation }
