package dataset

import (
	"errors"

	"github.com/zeusync/dataobjects/internal/core/fields"
	"github.com/zeusync/dataobjects/internal/core/observability/log"
)

// kernel resolves the element kernel. Tags outside the enumeration are fatal; the String tag
// has no numeric layout and is only warned about.
func (d *DataSet) kernel() (fields.Kernel, bool) {
	k, err := fields.KernelFor(d.ElementType())
	switch {
	case err == nil:
		return k, true
	case errors.Is(err, fields.ErrUnknownType):
		d.Log().Fatal("Element type out of range", log.Stringer("type", d.ElementType()))
	default:
		d.Log().Warn("Element type has no numeric conversion", log.Stringer("type", d.ElementType()))
	}
	return nil, false
}

// element returns the bytes of physical element i.
func (d *DataSet) element(i uint64) ([]byte, fields.Kernel, bool) {
	k, ok := d.kernel()
	if !ok {
		return nil, nil, false
	}
	if i >= d.Count() {
		d.Log().Error("Element index outside the buffer", log.Uint64("index", i), log.Uint64("count", d.Count()))
		return nil, nil, false
	}
	return d.view().At(int(i)), k, true
}

// ValueAt converts physical element i to float64.
func (d *DataSet) ValueAt(i uint64) float64 {
	p, k, ok := d.element(i)
	if !ok {
		return 0
	}
	return k.Float(p)
}

// SetValueAt stores v, converted to the element type, at physical element i.
func (d *DataSet) SetValueAt(i uint64, v float64) {
	p, k, ok := d.element(i)
	if !ok {
		return
	}
	k.SetFloat(p, v)
	d.SetHasData(true)
}

func (d *DataSet) ScalarAt(i uint64) fields.Scalar {
	p, k, ok := d.element(i)
	if !ok {
		return fields.Scalar{}
	}
	return k.Scalar(p)
}

func (d *DataSet) SetScalarAt(i uint64, s fields.Scalar) {
	p, k, ok := d.element(i)
	if !ok {
		return
	}
	k.SetScalar(p, s)
	d.SetHasData(true)
}

// ValueAtLogical reads the element at logical index i.
func (d *DataSet) ValueAtLogical(i uint64) float64 {
	p, ok := d.physical(i)
	if !ok {
		return 0
	}
	return d.ValueAt(p)
}

// SetValueAtLogical writes the element at logical index i.
func (d *DataSet) SetValueAtLogical(i uint64, v float64) {
	if p, ok := d.physical(i); ok {
		d.SetValueAt(p, v)
	}
}

func (d *DataSet) physical(i uint64) (uint64, bool) {
	if i < d.FirstIndex() {
		d.Log().Error("Logical index before the buffer start",
			log.Uint64("index", i), log.Uint64("first", d.FirstIndex()))
		return 0, false
	}
	return i - d.FirstIndex(), true
}
