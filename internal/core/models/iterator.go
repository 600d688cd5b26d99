package models

// Iterator is an interface for iterating over a collection of items.
// Next advances to the next item and reports whether there is one; Item
// returns it. Close releases the iterator; further Next calls return false.
// ToSlice and Count drain the remaining items.
type Iterator[T any] interface {
	Next() bool
	Item() T
	Error() error
	Close() error
	ToSlice() []T
	Count() int
}

// Drain collects the remaining items of it and closes it.
func Drain[T any](it Iterator[T]) []T {
	defer func() { _ = it.Close() }()
	var out []T
	for it.Next() {
		out = append(out, it.Item())
	}
	return out
}
