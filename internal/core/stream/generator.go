package stream

import (
	"github.com/zeusync/dataobjects/internal/core/fields"
	"github.com/zeusync/dataobjects/internal/core/models"
	"github.com/zeusync/dataobjects/internal/core/observability/log"
)

var _ Reader = (*Generator)(nil)

// GeneratorTypeName is the catalog name of Generator.
const GeneratorTypeName = "Generator"

// Generator is a read-only virtual source whose element i is fn(i). It owns no buffer;
// read requests encode the requested window on demand.
type Generator struct {
	Base

	fn      func(index uint64) float64
	kernel  fields.Kernel
	scratch []byte
}

// Ramp yields the logical index itself.
func Ramp(index uint64) float64 { return float64(index) }

func NewGenerator(t fields.Type, firstIndex, count uint64, fn func(index uint64) float64) *Generator {
	g := &Generator{}
	g.SetReadable(true)
	g.SetFunc(fn)
	g.Configure(t, firstIndex, count)
	return g
}

// SetFunc replaces the value function. A nil fn falls back to Ramp.
func (g *Generator) SetFunc(fn func(index uint64) float64) {
	if fn == nil {
		fn = Ramp
	}
	g.fn = fn
}

// Configure sets the produced window. Non-numeric element types leave the generator without data.
func (g *Generator) Configure(t fields.Type, firstIndex, count uint64) {
	k, err := fields.KernelFor(t)
	if err != nil {
		g.Log().Error("Generator element type is not numeric", log.Stringer("type", t), log.Error(err))
		k = nil
	}
	g.kernel = k
	g.UpdateStructure(t, firstIndex, count)
	g.SetDefaultBufferElements(count)
	g.SetHasData(k != nil && count > 0)
}

// Advance slides the window forward by n elements, as a free-running acquisition would.
func (g *Generator) Advance(n uint64) {
	g.UpdateStructure(g.ElementType(), g.FirstIndex()+n, g.Count())
}

func (g *Generator) View(start, n uint64) fields.View {
	size := g.kernel.Size()
	if need := int(n) * size; cap(g.scratch) < need {
		g.scratch = make([]byte, need)
	}
	v := fields.View{Data: g.scratch[:int(n)*size], Stride: size, Elem: size, Len: int(n)}
	for i := 0; i < v.Len; i++ {
		g.kernel.SetFloat(v.At(i), g.fn(start+uint64(i)))
	}
	return v
}

func (g *Generator) ReadRequest(start, count uint64, dest models.EntityID) error {
	return Transfer(g, start, count, dest)
}

// GeneratorFactory builds ramp generators of float64 with an empty window.
type GeneratorFactory struct{}

func (GeneratorFactory) Types() []models.TypeSpec {
	return []models.TypeSpec{{Name: GeneratorTypeName, Kind: models.KindSource}}
}

func (GeneratorFactory) Build(t *models.TypeDescriptor) models.Entity {
	if t.FullName() != GeneratorTypeName {
		return nil
	}
	return NewGenerator(fields.Float64, 0, 0, Ramp)
}
