// Package window provides a fixed-capacity history buffer.
package window

// Window keeps the last Cap values pushed, evicting the oldest once full.
// It is not safe for concurrent use; each owner guards its own windows.
type Window[T any] struct {
	data  []T
	start int
	size  int
}

// New creates a window holding at most capacity values. Capacity below one is treated as one.
func New[T any](capacity int) *Window[T] {
	if capacity < 1 {
		capacity = 1
	}

	return &Window[T]{
		data:  make([]T, capacity),
		start: 0,
		size:  0,
	}
}

// Push appends v, evicting the oldest value when the window is full.
func (w *Window[T]) Push(v T) {
	end := (w.start + w.size) % len(w.data)
	w.data[end] = v

	if w.size < len(w.data) {
		w.size++

		return
	}

	w.start = (w.start + 1) % len(w.data)
}

// Len returns the number of values held.
func (w *Window[T]) Len() int {
	return w.size
}

// Cap returns the window capacity.
func (w *Window[T]) Cap() int {
	return len(w.data)
}

// Full reports whether Len equals Cap.
func (w *Window[T]) Full() bool {
	return w.size == len(w.data)
}

// At returns the i-th value counting from the oldest.
func (w *Window[T]) At(i int) T {
	return w.data[(w.start+i)%len(w.data)]
}

// Last returns the newest value and false when the window is empty.
func (w *Window[T]) Last() (T, bool) {
	if w.size == 0 {
		var zero T

		return zero, false
	}

	return w.At(w.size - 1), true
}

// Values copies the contents from oldest to newest.
func (w *Window[T]) Values() []T {
	out := make([]T, w.size)
	for i := range w.size {
		out[i] = w.At(i)
	}

	return out
}

// Reset empties the window.
func (w *Window[T]) Reset() {
	clear(w.data)
	w.start = 0
	w.size = 0
}
