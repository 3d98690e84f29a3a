package inactive

import "github.com/vango-dev/inactive/internal/errors"

// Error is the structured error returned by every operation. Use
// errors.Is with the sentinels below; they match on Code.
type Error = errors.Error

var (
	ErrInvalidChild    = errors.New("E100")
	ErrInvalidRef      = errors.New("E101")
	ErrInvalidCallback = errors.New("E102")
	ErrInvalidStyle    = errors.New("E103")
	ErrInvalidRoot     = errors.New("E104")
	ErrInvalidType     = errors.New("E105")
)
