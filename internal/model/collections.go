package model

import "errors"

var ErrNotFound = errors.New("entity not found")

// Keyed is implemented by every entity stored in an id-keyed dossier collection.
type Keyed interface {
	Key() string
}

func FindByID[T Keyed](items []T, id string) (T, bool) {
	for _, it := range items {
		if it.Key() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// ReplaceByID returns a new slice in which the element with the given id is
// replaced by fn(old). The input slice is left untouched.
func ReplaceByID[T Keyed](items []T, id string, fn func(T) (T, error)) ([]T, error) {
	out := make([]T, len(items))
	found := false
	for i, it := range items {
		if it.Key() != id {
			out[i] = it
			continue
		}
		next, err := fn(it)
		if err != nil {
			return nil, err
		}
		out[i] = next
		found = true
	}
	if !found {
		return nil, ErrNotFound
	}
	return out, nil
}

// RemoveByID returns a new slice without the element and the removed element itself.
func RemoveByID[T Keyed](items []T, id string) ([]T, T, error) {
	var removed T
	out := make([]T, 0, len(items))
	found := false
	for _, it := range items {
		if it.Key() == id && !found {
			removed = it
			found = true
			continue
		}
		out = append(out, it)
	}
	if !found {
		return nil, removed, ErrNotFound
	}
	return out, removed, nil
}

func Append[T any](items []T, v T) []T {
	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	return append(out, v)
}

func CloneSlice[T any](items []T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
