package codec

import (
	"fmt"
	"math"
)

// DType identifies the element kind of a numeric array.
type DType string

const (
	// Float64 elements are binary64 values, non-finite included.
	Float64 DType = "float64"

	// Int64 elements are signed whole numbers.
	Int64 DType = "int64"

	// Bool elements are truth values.
	Bool DType = "bool"
)

// Array is a dense n-dimensional numeric array with row-major flat data.
//
// Shape and Data must agree: len(Data) equals the product of the extents.
// An empty Shape is a zero-dimensional scalar holding exactly one element;
// any zero extent means zero elements.
type Array struct {
	Shape []int
	DType DType
	Data  any // []float64 | []int64 | []bool
}

// NewFloat64Array creates a float64 array, validating shape against data.
func NewFloat64Array(shape []int, data []float64) (*Array, error) {
	a := &Array{Shape: cloneShape(shape), DType: Float64, Data: data}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// NewInt64Array creates an int64 array, validating shape against data.
func NewInt64Array(shape []int, data []int64) (*Array, error) {
	a := &Array{Shape: cloneShape(shape), DType: Int64, Data: data}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// NewBoolArray creates a bool array, validating shape against data.
func NewBoolArray(shape []int, data []bool) (*Array, error) {
	a := &Array{Shape: cloneShape(shape), DType: Bool, Data: data}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func cloneShape(shape []int) []int {
	out := make([]int, len(shape))
	copy(out, shape)
	return out
}

// elemCount returns the product of the extents. The empty product is 1,
// so a zero-dimensional array holds one element.
func elemCount(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("negative extent %d", d)
		}
		n *= d
	}
	return n, nil
}

func (a *Array) validate() error {
	want, err := elemCount(a.Shape)
	if err != nil {
		return NewMalformedArrayError(err.Error(), map[string]string{
			"shape": fmt.Sprint(a.Shape),
		})
	}

	var got int
	switch data := a.Data.(type) {
	case []float64:
		if a.DType != Float64 {
			return a.dtypeMismatch("[]float64")
		}
		got = len(data)
	case []int64:
		if a.DType != Int64 {
			return a.dtypeMismatch("[]int64")
		}
		got = len(data)
	case []bool:
		if a.DType != Bool {
			return a.dtypeMismatch("[]bool")
		}
		got = len(data)
	default:
		return NewMalformedArrayError(
			fmt.Sprintf("unsupported data type %T", a.Data),
			map[string]string{"dtype": string(a.DType)},
		)
	}

	if got != want {
		return NewMalformedArrayError(
			fmt.Sprintf("shape %v wants %d elements, data has %d", a.Shape, want, got),
			map[string]string{
				"shape":    fmt.Sprint(a.Shape),
				"expected": fmt.Sprint(want),
				"actual":   fmt.Sprint(got),
			},
		)
	}
	return nil
}

func (a *Array) dtypeMismatch(goKind string) error {
	return NewMalformedArrayError(
		fmt.Sprintf("dtype %q does not match data %s", a.DType, goKind),
		map[string]string{"dtype": string(a.DType)},
	)
}

// Len returns the number of elements.
func (a *Array) Len() int {
	n, err := elemCount(a.Shape)
	if err != nil {
		return 0
	}
	return n
}

// At returns the element at the given multi-dimensional indices using
// row-major layout.
func (a *Array) At(indices ...int) (any, error) {
	if len(indices) != len(a.Shape) {
		return nil, fmt.Errorf("rank mismatch: %d indices for shape %v", len(indices), a.Shape)
	}
	flat := 0
	for i, idx := range indices {
		if idx < 0 || idx >= a.Shape[i] {
			return nil, fmt.Errorf("index %d out of range for extent %d", idx, a.Shape[i])
		}
		flat = flat*a.Shape[i] + idx
	}
	switch data := a.Data.(type) {
	case []float64:
		return data[flat], nil
	case []int64:
		return data[flat], nil
	case []bool:
		return data[flat], nil
	default:
		return nil, fmt.Errorf("unsupported data type %T", a.Data)
	}
}

// Equal reports semantic equality of two arrays: same shape, same dtype,
// elementwise equal data with NaN counted equal to NaN.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.DType != b.DType || len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	switch ad := a.Data.(type) {
	case []float64:
		bd, ok := b.Data.([]float64)
		if !ok || len(ad) != len(bd) {
			return false
		}
		for i := range ad {
			if math.IsNaN(ad[i]) && math.IsNaN(bd[i]) {
				continue
			}
			if ad[i] != bd[i] {
				return false
			}
		}
		return true
	case []int64:
		bd, ok := b.Data.([]int64)
		if !ok || len(ad) != len(bd) {
			return false
		}
		for i := range ad {
			if ad[i] != bd[i] {
				return false
			}
		}
		return true
	case []bool:
		bd, ok := b.Data.([]bool)
		if !ok || len(ad) != len(bd) {
			return false
		}
		for i := range ad {
			if ad[i] != bd[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}
