package registry

import "errors"

var (
	ErrInvalidCategory   = errors.New("category must be exactly one known flag")
	ErrAlreadyRegistered = errors.New("entity already registered")
	ErrNotRegistered     = errors.New("entity not registered")
	ErrClosed            = errors.New("registry closed")
	ErrNilEntity         = errors.New("entity is nil")
	ErrNilSystem         = errors.New("system is nil")
	ErrSystemPanic       = errors.New("system panicked")
)
