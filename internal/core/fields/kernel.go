package fields

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"
)

// Kernel implements every per-element operation for one numeric tag. Each kernel is a
// single generic implementation instantiated once per tag; callers dispatch through KernelFor.
//
// The ordered-data queries assume ascending values and never verify it.
type Kernel interface {
	Type() Type
	Size() int

	Float(p []byte) float64
	SetFloat(p []byte, v float64)
	Scalar(p []byte) Scalar
	SetScalar(p []byte, s Scalar)
	Convert(s Scalar) Scalar

	// LowerBound returns the first index whose value is >= key, or v.Len when none is.
	LowerBound(v View, key float64) int
	// UpperBound returns the last index whose value is <= key, or -1 when none is.
	UpperBound(v View, key float64) int
	// Closest returns the index whose value is nearest to key. It fails when key lies
	// outside [v[0], v[Len-1]].
	Closest(v View, key Scalar) (int, bool)
	// MinMax scans v once. It fails on an empty view.
	MinMax(v View) (Scalar, Scalar, bool)
}

var kernels = [typeCount]Kernel{
	Int8:    newNumeric[int8](Int8),
	Int16:   newNumeric[int16](Int16),
	Int32:   newNumeric[int32](Int32),
	Int64:   newNumeric[int64](Int64),
	Uint8:   newNumeric[uint8](Uint8),
	Uint16:  newNumeric[uint16](Uint16),
	Uint32:  newNumeric[uint32](Uint32),
	Uint64:  newNumeric[uint64](Uint64),
	Float32: newNumeric[float32](Float32),
	Float64: newNumeric[float64](Float64),
	Size:    newNumeric[uint](Size),
	Bool:    boolean{newNumeric[uint8](Bool)},
}

// KernelFor returns the kernel for t. It fails with ErrUnknownType for tags outside the
// enumeration and ErrNotNumeric for declared tags without a numeric layout.
func KernelFor(t Type) (Kernel, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	k := kernels[t]
	if k == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotNumeric, t)
	}
	return k, nil
}

type numeric[T Element] struct {
	typ  Type
	size int
}

func newNumeric[T Element](t Type) numeric[T] {
	var zero T
	return numeric[T]{typ: t, size: int(unsafe.Sizeof(zero))}
}

func (k numeric[T]) Type() Type { return k.typ }
func (k numeric[T]) Size() int  { return k.size }

func (k numeric[T]) Float(p []byte) float64 { return float64(load[T](p)) }

func (k numeric[T]) SetFloat(p []byte, v float64) { store(p, T(v)) }

func (k numeric[T]) Scalar(p []byte) Scalar { return scalarFrom(k.typ, load[T](p)) }

func (k numeric[T]) SetScalar(p []byte, s Scalar) { store(p, nativeOf[T](s)) }

func (k numeric[T]) Convert(s Scalar) Scalar { return scalarFrom(k.typ, nativeOf[T](s)) }

func (k numeric[T]) at(v View, i int) T { return load[T](v.At(i)) }

func (k numeric[T]) LowerBound(v View, key float64) int {
	if v.Len == 0 {
		return 0
	}
	lo, hi := 0, v.Len-1
	for lo < hi {
		mid := lo + (hi-lo)/2
		if float64(k.at(v, mid)) < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	// values are not exact: the converged element can still sit before the bound
	if float64(k.at(v, lo)) < key {
		lo++
	}
	return lo
}

func (k numeric[T]) UpperBound(v View, key float64) int {
	if v.Len == 0 {
		return -1
	}
	lo, hi := 0, v.Len-1
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if float64(k.at(v, mid)) > key {
			hi = mid - 1
		} else {
			lo = mid
		}
	}
	// values are not exact: the converged element can still sit after the bound
	if float64(k.at(v, lo)) > key {
		lo--
	}
	return lo
}

func (k numeric[T]) Closest(v View, key Scalar) (int, bool) {
	if v.Len == 0 {
		return 0, false
	}
	// range check before narrowing, a key outside the value range would wrap
	fk := key.Float64()
	if !(fk >= float64(k.at(v, 0)) && fk <= float64(k.at(v, v.Len-1))) {
		return 0, false
	}

	// float keys are compared as float64; narrowing them would move the converged element
	floatKey := key.typ.class() == classFloat
	target := nativeOf[T](key)
	below := func(x T) bool {
		if floatKey {
			return float64(x) < fk
		}
		return x < target
	}
	dist := func(x T) float64 {
		if floatKey {
			return math.Abs(float64(x) - fk)
		}
		return k.distance(x, target)
	}

	lo, hi := 0, v.Len-1
	for lo < hi {
		mid := lo + (hi-lo)/2
		if below(k.at(v, mid)) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	// the neighbor below wins only when strictly closer
	best := lo
	if lo > 0 && dist(k.at(v, lo-1)) < dist(k.at(v, lo)) {
		best = lo - 1
	}

	value := k.at(v, best)
	if value < k.at(v, 0) || value > k.at(v, v.Len-1) {
		return 0, false
	}
	return best, true
}

func (k numeric[T]) MinMax(v View) (Scalar, Scalar, bool) {
	if v.Len == 0 {
		return Scalar{typ: k.typ}, Scalar{typ: k.typ}, false
	}
	lo := k.at(v, 0)
	hi := lo
	for i := 1; i < v.Len; i++ {
		x := k.at(v, i)
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return scalarFrom(k.typ, lo), scalarFrom(k.typ, hi), true
}

func (k numeric[T]) distance(a, b T) float64 {
	if a < b {
		a, b = b, a
	}
	switch k.typ.class() {
	case classFloat:
		return float64(a - b)
	case classSigned:
		// wraps correctly for the full signed range once reinterpreted as unsigned
		return float64(uint64(int64(a) - int64(b)))
	default:
		return float64(uint64(a) - uint64(b))
	}
}

// boolean stores 0/1 bytes; every non-zero input becomes 1.
type boolean struct {
	numeric[uint8]
}

func (k boolean) SetFloat(p []byte, v float64) {
	if v != 0 {
		p[0] = 1
	} else {
		p[0] = 0
	}
}

func (k boolean) Convert(s Scalar) Scalar { return BoolScalar(s.Bool()) }

func (k boolean) SetScalar(p []byte, s Scalar) {
	if s.Bool() {
		p[0] = 1
	} else {
		p[0] = 0
	}
}

func load[T Element](p []byte) T {
	var v T
	switch unsafe.Sizeof(v) {
	case 1:
		*(*uint8)(unsafe.Pointer(&v)) = p[0]
	case 2:
		*(*uint16)(unsafe.Pointer(&v)) = binary.NativeEndian.Uint16(p)
	case 4:
		*(*uint32)(unsafe.Pointer(&v)) = binary.NativeEndian.Uint32(p)
	case 8:
		*(*uint64)(unsafe.Pointer(&v)) = binary.NativeEndian.Uint64(p)
	}
	return v
}

func store[T Element](p []byte, v T) {
	switch unsafe.Sizeof(v) {
	case 1:
		p[0] = *(*uint8)(unsafe.Pointer(&v))
	case 2:
		binary.NativeEndian.PutUint16(p, *(*uint16)(unsafe.Pointer(&v)))
	case 4:
		binary.NativeEndian.PutUint32(p, *(*uint32)(unsafe.Pointer(&v)))
	case 8:
		binary.NativeEndian.PutUint64(p, *(*uint64)(unsafe.Pointer(&v)))
	}
}
