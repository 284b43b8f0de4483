package models

import "sync/atomic"

// Kind is the coarse category used for default ordering of creation and deletion.
type Kind uint8

const (
	KindDevice Kind = iota
	KindSource
	KindProcessor
	KindDisplay
)

func (k Kind) String() string {
	switch k {
	case KindDevice:
		return "device"
	case KindSource:
		return "source"
	case KindProcessor:
		return "processor"
	case KindDisplay:
		return "display"
	default:
		return "unknown"
	}
}

var (
	// creation and restore passes
	restoreOrder = [...]Kind{KindDevice, KindProcessor, KindSource, KindDisplay}
	// later kinds go last because earlier kinds may depend on them
	deleteOrder = [...]Kind{KindDisplay, KindProcessor, KindDevice, KindSource}
)

// TypeSpec is what a Factory declares for each type it can build.
type TypeSpec struct {
	Name string
	Kind Kind
}

// Factory builds raw, unregistered entities for the types it declares.
// Build returns nil when it cannot construct the requested type.
type Factory interface {
	Types() []TypeSpec
	Build(t *TypeDescriptor) Entity
}

// FactoryFunc adapts a single-type constructor to Factory.
type FactoryFunc struct {
	Spec TypeSpec
	New  func(t *TypeDescriptor) Entity
}

func (f FactoryFunc) Types() []TypeSpec { return []TypeSpec{f.Spec} }

func (f FactoryFunc) Build(t *TypeDescriptor) Entity {
	if f.New == nil || t == nil || t.fullName != f.Spec.Name {
		return nil
	}
	return f.New(t)
}

// TypeDescriptor is a catalog entry. Instances counts every Add of this type and is
// never decremented, so default names stay unique.
type TypeDescriptor struct {
	id        uint32
	fullName  string
	kind      Kind
	factory   Factory
	instances atomic.Uint64
}

func (t *TypeDescriptor) ID() uint32        { return t.id }
func (t *TypeDescriptor) FullName() string  { return t.fullName }
func (t *TypeDescriptor) Kind() Kind        { return t.kind }
func (t *TypeDescriptor) Instances() uint64 { return t.instances.Load() }
