package position

import "errors"

// Fractional position keys for operations inside one area. Inserting between
// two neighbors takes their midpoint, so siblings are never rewritten on a
// move. Areas deliberately do not use this package: their list is short and
// is densely renumbered on every reorder instead.

var (
	ErrIndexOutOfRange = errors.New("insertion index out of range")
	ErrUnsorted        = errors.New("positions are not in ascending order")
)

// MinGap is the smallest spacing between adjacent keys before midpoint
// insertion is considered degraded. Repeated insertion between the same two
// neighbors halves the gap each time; below this bound callers should
// renumber the area before allocating further.
const MinGap = 1e-9

// Tail returns the key for appending after the given ascending keys.
func Tail(sorted []float64) float64 {
	if len(sorted) == 0 {
		return 1
	}
	return sorted[len(sorted)-1] + 1
}

// Head returns the key for inserting before the first of the given keys.
func Head(sorted []float64) float64 {
	if len(sorted) == 0 {
		return 1
	}
	return sorted[0] / 2
}

// Between returns the midpoint key between two adjacent keys a < b.
func Between(a, b float64) float64 {
	return (a + b) / 2
}

// ForIndex returns the key that places a new item at idx within the sorted
// keys. idx == len(sorted) appends.
func ForIndex(sorted []float64, idx int) (float64, error) {
	if idx < 0 || idx > len(sorted) {
		return 0, ErrIndexOutOfRange
	}
	switch {
	case idx == len(sorted):
		return Tail(sorted), nil
	case idx == 0:
		return Head(sorted), nil
	default:
		return Between(sorted[idx-1], sorted[idx]), nil
	}
}

// NeedsRebalance reports whether any adjacent gap has collapsed below MinGap.
func NeedsRebalance(sorted []float64) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] < MinGap {
			return true
		}
	}
	return false
}

// Renumber returns dense replacement keys 1..N for the given ascending keys.
// The caller is responsible for writing the new keys back to every sibling.
func Renumber(sorted []float64) ([]float64, error) {
	for i := 1; i < len(sorted); i++ {
		if sorted[i] < sorted[i-1] {
			return nil, ErrUnsorted
		}
	}
	out := make([]float64, len(sorted))
	for i := range sorted {
		out[i] = float64(i + 1)
	}
	return out, nil
}
