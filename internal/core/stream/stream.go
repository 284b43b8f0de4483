package stream

import (
	"github.com/zeusync/dataobjects/internal/core/events/bus"
	"github.com/zeusync/dataobjects/internal/core/fields"
	"github.com/zeusync/dataobjects/internal/core/models"
)

// Source is a producer of a typed, strided array.
type Source interface {
	models.Entity

	ElementType() fields.Type
	FirstIndex() uint64
	Count() uint64
	Structure() Structure
	DefaultBufferElements() uint64

	Readable() bool
	Writable() bool
	HasData() bool

	Properties() *Properties
	Registry() *models.Registry

	// UpdateStructure changes element type, first index and count together. It reports
	// whether anything changed; StructureChanged fires only then.
	UpdateStructure(t fields.Type, firstIndex, count uint64) bool
	// ReadRequest copies count elements starting at logical index start into the
	// buffer registered under dest.
	ReadRequest(start, count uint64, dest models.EntityID) error
}

// Reader is a Source whose elements Transfer can copy out.
type Reader interface {
	Source
	// View returns the physical window holding n logical elements starting at start.
	// Transfer only asks for ranges inside [FirstIndex, FirstIndex+Count).
	View(start, n uint64) fields.View
}

// Sink is a Source that accepts the result of a read request.
type Sink interface {
	Source
	// Capacity is the number of elements the sink can hold without reallocating.
	Capacity() uint64
	// Ingest writes src into the sink's first src.Len physical elements.
	Ingest(src fields.View)
	SetHasData(bool)
	ReplaceProperties(*Properties)
}

// Structure is the (element type, first index, count) snapshot of a stream.
type Structure struct {
	Type       fields.Type
	FirstIndex uint64
	Count      uint64
}

// Base carries the state every stream shares. Embedders supply ReadRequest.
type Base struct {
	models.Base

	elementType           fields.Type
	firstIndex            uint64
	count                 uint64
	defaultBufferElements uint64

	readable bool
	writable bool
	hasData  bool

	props *Properties
}

func (s *Base) ElementType() fields.Type          { return s.elementType }
func (s *Base) FirstIndex() uint64                { return s.firstIndex }
func (s *Base) Count() uint64                     { return s.count }
func (s *Base) DefaultBufferElements() uint64     { return s.defaultBufferElements }
func (s *Base) SetDefaultBufferElements(n uint64) { s.defaultBufferElements = n }

func (s *Base) Readable() bool     { return s.readable }
func (s *Base) Writable() bool     { return s.writable }
func (s *Base) HasData() bool      { return s.hasData }
func (s *Base) SetReadable(v bool) { s.readable = v }
func (s *Base) SetWritable(v bool) { s.writable = v }
func (s *Base) SetHasData(v bool)  { s.hasData = v }

func (s *Base) Structure() Structure {
	return Structure{Type: s.elementType, FirstIndex: s.firstIndex, Count: s.count}
}

func (s *Base) UpdateStructure(t fields.Type, firstIndex, count uint64) bool {
	if s.elementType == t && s.firstIndex == firstIndex && s.count == count {
		return false
	}
	s.elementType = t
	s.firstIndex = firstIndex
	s.count = count
	s.Events().Publish(bus.Event{Kind: bus.StructureChanged, Source: uint64(s.ID()), Data: s.Structure()})
	return true
}

// Properties returns the live bag; callers may edit it in place.
func (s *Base) Properties() *Properties {
	if s.props == nil {
		s.props = NewProperties()
	}
	return s.props
}

// ReplaceProperties swaps in a copy of p.
func (s *Base) ReplaceProperties(p *Properties) {
	s.props = p.Clone()
}

// Contains reports whether logical index i lies in [FirstIndex, FirstIndex+Count).
func (s *Base) Contains(i uint64) bool {
	return i >= s.firstIndex && i-s.firstIndex < s.count
}
