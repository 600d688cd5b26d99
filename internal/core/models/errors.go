package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrDuplicateComponent  = errors.New("component kind already attached")
	ErrComponentNotFound   = errors.New("component kind not attached")
	ErrUnknownComponentTag = errors.New("unknown component tag")
	ErrUnknownKind         = errors.New("unknown component kind")
	ErrKindConflict        = errors.New("component kind or tag already registered")
	ErrNotSerializable     = errors.New("component kind is not serializable")
	ErrSizeMismatch        = errors.New("encoded size does not match reported size")
	ErrUnknownEntityKind   = errors.New("unknown entity kind")
)

// DecodeError reports a failure while reading a tagged entity stream.
type DecodeError struct {
	Tag    Tag
	Offset int
	// GUID is set when the identity record was decoded before the failure.
	GUID uuid.UUID
	Err  error
}

func (e *DecodeError) Error() string {
	if e.GUID != uuid.Nil {
		return fmt.Sprintf("decode entity %s: tag %d at offset %d: %v", e.GUID, e.Tag, e.Offset, e.Err)
	}
	return fmt.Sprintf("decode entity: tag %d at offset %d: %v", e.Tag, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
