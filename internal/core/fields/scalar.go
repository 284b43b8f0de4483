package fields

import (
	"math"
	"strconv"
)

// Scalar is a dynamically typed value: an element-type tag plus its raw bits.
// Signed values are stored as two's complement int64, unsigned and bool values
// as uint64, floats as float64 bits.
type Scalar struct {
	typ  Type
	bits uint64
}

// ScalarOf boxes v under the tag of its Go type.
func ScalarOf[T Element](v T) Scalar {
	return scalarFrom(TypeOf[T](), v)
}

func BoolScalar(v bool) Scalar {
	if v {
		return Scalar{typ: Bool, bits: 1}
	}
	return Scalar{typ: Bool}
}

func Float64Scalar(v float64) Scalar {
	return ScalarOf(v)
}

func Int64Scalar(v int64) Scalar {
	return ScalarOf(v)
}

func Uint64Scalar(v uint64) Scalar {
	return ScalarOf(v)
}

func scalarFrom[T Element](t Type, v T) Scalar {
	switch t.class() {
	case classSigned:
		return Scalar{typ: t, bits: uint64(int64(v))}
	case classUnsigned:
		return Scalar{typ: t, bits: uint64(v)}
	case classFloat:
		return Scalar{typ: t, bits: math.Float64bits(float64(v))}
	case classBool:
		if v != 0 {
			return Scalar{typ: t, bits: 1}
		}
		return Scalar{typ: t}
	default:
		return Scalar{typ: t}
	}
}

// nativeOf converts s to T with Go conversion semantics (integers wrap, floats truncate).
func nativeOf[T Element](s Scalar) T {
	switch s.typ.class() {
	case classSigned:
		return T(int64(s.bits))
	case classFloat:
		return T(math.Float64frombits(s.bits))
	default:
		return T(s.bits)
	}
}

func (s Scalar) Type() Type { return s.typ }

func (s Scalar) Float64() float64 {
	switch s.typ.class() {
	case classSigned:
		return float64(int64(s.bits))
	case classFloat:
		return math.Float64frombits(s.bits)
	default:
		return float64(s.bits)
	}
}

func (s Scalar) Int64() int64 {
	switch s.typ.class() {
	case classFloat:
		return int64(math.Float64frombits(s.bits))
	default:
		return int64(s.bits)
	}
}

func (s Scalar) Uint64() uint64 {
	switch s.typ.class() {
	case classSigned:
		return uint64(int64(s.bits))
	case classFloat:
		return uint64(math.Float64frombits(s.bits))
	default:
		return s.bits
	}
}

func (s Scalar) Bool() bool {
	if s.typ.class() == classFloat {
		return math.Float64frombits(s.bits) != 0
	}
	return s.bits != 0
}

// Convert returns s narrowed or widened to t. Non-numeric targets yield a zero value tagged t.
func (s Scalar) Convert(t Type) Scalar {
	k, err := KernelFor(t)
	if err != nil {
		return Scalar{typ: t}
	}
	return k.Convert(s)
}

// Compare orders s against o after converting o to s's type: -1, 0 or +1.
func (s Scalar) Compare(o Scalar) int {
	o = o.Convert(s.typ)
	switch s.typ.class() {
	case classSigned:
		return cmp3(int64(s.bits), int64(o.bits))
	case classFloat:
		return cmp3(math.Float64frombits(s.bits), math.Float64frombits(o.bits))
	default:
		return cmp3(s.bits, o.bits)
	}
}

func (s Scalar) String() string {
	switch s.typ.class() {
	case classSigned:
		return strconv.FormatInt(int64(s.bits), 10)
	case classUnsigned:
		return strconv.FormatUint(s.bits, 10)
	case classFloat:
		return strconv.FormatFloat(math.Float64frombits(s.bits), 'g', -1, 64)
	case classBool:
		return strconv.FormatBool(s.bits != 0)
	default:
		return ""
	}
}

func cmp3[T int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
