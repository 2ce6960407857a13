package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyConversation signals a caller contract violation: an empty
	// message list reached a retrieval strategy. The boundary is expected
	// to reject such requests before dispatch.
	ErrEmptyConversation = errors.New("empty conversation")

	// ErrMalformedDocument marks an unparsable stored document payload,
	// an upstream data-integrity defect that must surface, not be masked.
	ErrMalformedDocument = errors.New("malformed document payload")

	ErrInvalidInput   = errors.New("invalid input")
	ErrNotImplemented = errors.New("retrieval mode not implemented")
	ErrTemporary      = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
