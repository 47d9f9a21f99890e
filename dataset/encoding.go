package dataset

import (
	"errors"
	"fmt"
	"sort"
)

// LabelEncoder maps arbitrary class labels to dense codes 0..n-1, assigned
// in ascending label order so encoding is independent of input order.
type LabelEncoder struct {
	classes []int
	codes   map[int]int
}

// FitLabels learns the class set.
func (e *LabelEncoder) FitLabels(labels []int) {
	seen := make(map[int]bool)
	e.classes = e.classes[:0]
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			e.classes = append(e.classes, l)
		}
	}
	sort.Ints(e.classes)
	e.codes = make(map[int]int, len(e.classes))
	for i, c := range e.classes {
		e.codes[c] = i
	}
}

// Encode maps labels to codes. Unknown labels are an error.
func (e *LabelEncoder) Encode(labels []int) ([]int, error) {
	if e.codes == nil {
		return nil, errors.New("encoder not fitted")
	}
	out := make([]int, len(labels))
	for i, l := range labels {
		code, ok := e.codes[l]
		if !ok {
			return nil, fmt.Errorf("unknown label %d", l)
		}
		out[i] = code
	}
	return out, nil
}

// Decode maps codes back to the original labels.
func (e *LabelEncoder) Decode(codes []int) ([]int, error) {
	if e.codes == nil {
		return nil, errors.New("encoder not fitted")
	}
	out := make([]int, len(codes))
	for i, c := range codes {
		if c < 0 || c >= len(e.classes) {
			return nil, fmt.Errorf("unknown code %d", c)
		}
		out[i] = e.classes[c]
	}
	return out, nil
}

// Classes returns the learned labels, ascending.
func (e *LabelEncoder) Classes() []int {
	return append([]int(nil), e.classes...)
}

// OneHot encodes dense codes as indicator vectors of the given width.
func OneHot(codes []int, width int) ([][]float64, error) {
	out := make([][]float64, len(codes))
	for i, c := range codes {
		if c < 0 || c >= width {
			return nil, fmt.Errorf("code %d out of range [0,%d)", c, width)
		}
		row := make([]float64, width)
		row[c] = 1
		out[i] = row
	}
	return out, nil
}
