package models

import "github.com/zeusync/simstore/pkg/encoding"

// Component is a data record attached to an entity.
//
// Kind must not dereference its receiver: the generic accessors call it on a
// nil pointer of the component type to learn the kind.
type Component interface {
	Kind() KindID
}

// Serializable components take part in the tagged entity stream.
type Serializable interface {
	Component
	encoding.Marshaler
	encoding.Unmarshaler

	Tag() Tag
	Version() uint8
	// Encode is the stream form of Serialize.
	Encode(w *encoding.Writer) error
}

// Disposable components hold resources released when they leave an entity.
type Disposable interface {
	Component
	Dispose()
}
