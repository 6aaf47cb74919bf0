package generic

// Set is an unordered collection of distinct comparable values. The zero value is not usable, use NewSet.
type Set[T comparable] struct {
	items map[T]struct{}
}

func NewSet[T comparable](items ...T) Set[T] {
	s := Set[T]{items: make(map[T]struct{}, len(items))}
	for _, item := range items {
		s.items[item] = struct{}{}
	}
	return s
}

// Contains returns true only if every one of items is in the set.
func (s Set[T]) Contains(items ...T) bool {
	for _, item := range items {
		if _, found := s.items[item]; !found {
			return false
		}
	}
	return true
}
