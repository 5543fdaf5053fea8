package admin

import (
	"errors"
	"strconv"
	"strings"
)

var ErrBadOrder = errors.New("invalid file order")

// The reorder helpers work on a list of positions into the original
// selection and never modify their input.

func MoveUp(order []int, i int) []int {
	if i <= 0 || i >= len(order) {
		return clone(order)
	}
	out := clone(order)
	out[i-1], out[i] = out[i], out[i-1]
	return out
}

func MoveDown(order []int, i int) []int {
	if i < 0 || i >= len(order)-1 {
		return clone(order)
	}
	out := clone(order)
	out[i], out[i+1] = out[i+1], out[i]
	return out
}

func Remove(order []int, i int) []int {
	if i < 0 || i >= len(order) {
		return clone(order)
	}
	out := make([]int, 0, len(order)-1)
	out = append(out, order[:i]...)
	return append(out, order[i+1:]...)
}

// Move is a drag and drop of from onto to. Dragging downwards lands after
// the target, upwards before it.
func Move(order []int, from, to int) []int {
	if from < 0 || from >= len(order) || to < 0 || to >= len(order) || from == to {
		return clone(order)
	}
	item := order[from]
	rest := Remove(order, from)
	// Removing from shifted everything after it one slot left, so inserting
	// at to is after the target when from < to and before it otherwise.
	out := make([]int, 0, len(order))
	out = append(out, rest[:to]...)
	out = append(out, item)
	return append(out, rest[to:]...)
}

// ParseOrder reads "2,0,1". An empty string is the identity order of n.
func ParseOrder(s string, n int) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return Identity(n), nil
	}
	parts := strings.Split(s, ",")
	seen := make(map[int]bool, len(parts))
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v >= n || seen[v] {
			return nil, ErrBadOrder
		}
		seen[v] = true
		out = append(out, v)
	}
	return out, nil
}

// ApplyOrder picks items in order. Items left out are dropped.
func ApplyOrder[T any](items []T, order []int) []T {
	out := make([]T, 0, len(order))
	for _, i := range order {
		out = append(out, items[i])
	}
	return out
}

func Identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func clone(order []int) []int {
	return append([]int{}, order...)
}
