package fields

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"
)

var (
	// ErrUnknownType is returned for a tag outside the declared enumeration.
	ErrUnknownType = errors.New("unknown element type")
	// ErrNotNumeric is returned for a declared tag without a numeric representation.
	ErrNotNumeric = errors.New("element type is not numerically convertible")
)

// Type is the element-type tag describing a buffer's element layout.
type Type uint8

const (
	Int8 Type = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	// Size is the platform's native unsigned word (uint).
	Size
	Bool
	// String is declared for variable-length text streams; it has no fixed layout
	// and no numeric conversion.
	String

	typeCount
)

// Element lists the Go types backing the numeric tags.
type Element interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64 | uint
}

type class uint8

const (
	classNone class = iota
	classSigned
	classUnsigned
	classFloat
	classBool
)

var typeNames = [typeCount]string{
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	Size:    "size",
	Bool:    "bool",
	String:  "string",
}

var typeSizes = [typeCount]int{
	Int8:    1,
	Int16:   2,
	Int32:   4,
	Int64:   8,
	Uint8:   1,
	Uint16:  2,
	Uint32:  4,
	Uint64:  8,
	Float32: 4,
	Float64: 8,
	Size:    int(unsafe.Sizeof(uint(0))),
	Bool:    1,
	String:  0,
}

// Valid reports whether t lies inside the declared enumeration.
func (t Type) Valid() bool { return t < typeCount }

// Numeric reports whether values of t convert to and from float64.
func (t Type) Numeric() bool { return t.Valid() && t != String }

// Size returns the element width in bytes; zero for String and invalid tags.
func (t Type) Size() int {
	if !t.Valid() {
		return 0
	}
	return typeSizes[t]
}

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("type(%d)", uint8(t))
	}
	return typeNames[t]
}

func (t Type) class() class {
	switch t {
	case Int8, Int16, Int32, Int64:
		return classSigned
	case Uint8, Uint16, Uint32, Uint64, Size:
		return classUnsigned
	case Float32, Float64:
		return classFloat
	case Bool:
		return classBool
	default:
		return classNone
	}
}

// ParseType resolves a tag from its name as printed by Type.String.
func ParseType(name string) (Type, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == name {
			return Type(t), true
		}
	}
	return 0, false
}

// TypeOf returns the tag backing the Go type T.
func TypeOf[T Element]() Type {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		return Size
	}
}
