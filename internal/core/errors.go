package core

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrAccessDenied    = errors.New("access denied")
	ErrNotAllowed      = errors.New("not allowed")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")

	ErrSelfConversation = fmt.Errorf("%w: cannot start a conversation with yourself", ErrInvalidArgument)
	ErrInvalidReaction  = fmt.Errorf("%w: invalid reaction", ErrInvalidArgument)
)
