package dataset

import (
	"github.com/zeusync/dataobjects/internal/core/fields"
)

// The ordered queries below assume the buffer holds ascending values. Results are physical
// indexes.

// LowerBound returns the first index whose value is >= key, or Count when none is.
func (d *DataSet) LowerBound(key float64) int {
	k, ok := d.kernel()
	if !ok {
		return int(d.Count())
	}
	return k.LowerBound(d.view(), key)
}

// UpperBound returns the last index whose value is <= key, or -1 when none is.
func (d *DataSet) UpperBound(key float64) int {
	k, ok := d.kernel()
	if !ok {
		return -1
	}
	return k.UpperBound(d.view(), key)
}

// BoundingIndices returns the first index whose value is >= start and the last index whose
// value is < end. It fails when the half-open [start, end) does not intersect
// [first value, last value]; when the interval falls between two neighbouring values the
// returned start exceeds end.
func (d *DataSet) BoundingIndices(start, end float64) (int, int, bool) {
	k, ok := d.kernel()
	if !ok {
		return 0, 0, false
	}
	v := d.view()
	if v.Len == 0 || !(start < end) {
		return 0, 0, false
	}

	lo, hi := k.Float(v.At(0)), k.Float(v.At(v.Len-1))
	if end <= lo || start > hi {
		return 0, 0, false
	}

	first, last := 0, v.Len-1
	if start > lo {
		first = k.LowerBound(v, start)
	}
	if end <= hi {
		last = k.LowerBound(v, end) - 1
	}
	return first, last, true
}

// ClosestIndex returns the index of the value nearest to key, ties resolved toward the higher
// index. It fails when key lies outside [first value, last value].
func (d *DataSet) ClosestIndex(key fields.Scalar) (int, bool) {
	k, ok := d.kernel()
	if !ok {
		return 0, false
	}
	return k.Closest(d.view(), key)
}

// MinMax scans the buffer once.
func (d *DataSet) MinMax() (fields.Scalar, fields.Scalar, bool) {
	k, ok := d.kernel()
	if !ok {
		return fields.Scalar{}, fields.Scalar{}, false
	}
	return k.MinMax(d.view())
}
