package ledger

import "errors"

// Business-rule failures. The HTTP layer maps these onto status codes; the
// service guarantees none of them leaves partial state behind.
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransfer   = errors.New("source and destination locations must differ")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateSKU      = errors.New("sku already exists")
)

// ValidationError reports a missing or malformed request field.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }
