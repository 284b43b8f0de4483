package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/dataobjects/internal/core/events/bus"
	"github.com/zeusync/dataobjects/internal/core/fields"
	"github.com/zeusync/dataobjects/internal/core/models"
	"github.com/zeusync/dataobjects/internal/core/stream"
)

func TestReadRequest(t *testing.T) {
	r, logs := newRegistry(t, Factory{})
	src := ramp(t, r, fields.Uint16, 10, 0, 1)
	src.Properties().Set("unit", "V")
	src.Properties().Set("rate", 1000)

	t.Run("Copies and notifies the destination only", func(t *testing.T) {
		dest := mustCreate(t, r, nil)
		dest.CreateBuffer(fields.Uint16, 0, 10)
		dest.Properties().Set("stale", true)

		var srcEvents, destEvents int
		s1 := src.Events().Subscribe(bus.NewData, func(bus.Event) { srcEvents++ })
		s2 := dest.Events().Subscribe(bus.NewData, func(bus.Event) { destEvents++ })
		defer s1.Cancel()
		defer s2.Cancel()

		require.NoError(t, src.ReadRequest(2, 4, dest.ID()))
		assert.Equal(t, stream.Structure{Type: fields.Uint16, FirstIndex: 2, Count: 4}, dest.Structure())
		assert.True(t, dest.HasData())
		assert.Equal(t, 2.0, dest.ValueAt(0))
		assert.Equal(t, 5.0, dest.ValueAtLogical(5))
		assert.Equal(t, []string{"unit", "rate"}, dest.Properties().Keys())
		assert.Equal(t, 0, srcEvents)
		assert.Equal(t, 1, destEvents)

		src.Properties().Set("unit", "mV")
		unit, _ := dest.Properties().Get("unit")
		assert.Equal(t, "V", unit, "properties are copied by value")
		src.Properties().Set("unit", "V")
	})

	t.Run("Over-long request is truncated", func(t *testing.T) {
		dest := mustCreate(t, r, nil)
		dest.CreateBuffer(fields.Uint16, 0, 10)

		require.NoError(t, src.ReadRequest(6, 10, dest.ID()))
		assert.Equal(t, uint64(4), dest.Count())
		assert.Equal(t, uint64(6), dest.FirstIndex())
		assert.Equal(t, 9.0, dest.ValueAt(3))
		assert.Equal(t, 1, logs.FilterMessage("Read request truncated").Len())
	})

	t.Run("Rejected requests leave the destination untouched", func(t *testing.T) {
		small := mustCreate(t, r, nil)
		small.CreateBuffer(fields.Uint16, 0, 3)
		for i := uint64(0); i < 3; i++ {
			small.SetValueAt(i, 77)
		}
		other := mustCreate(t, r, nil)
		other.CreateBuffer(fields.Float32, 0, 10)
		other.SetValueAt(0, 1.5)
		readOnly := mustCreate(t, r, nil)
		readOnly.CreateBuffer(fields.Uint16, 0, 10)
		readOnly.SetWritable(false)
		empty := mustCreate(t, r, nil)
		empty.CreateBuffer(fields.Uint16, 0, 10)

		tests := []struct {
			name    string
			source  *DataSet
			start   uint64
			count   uint64
			dest    *DataSet
			destID  models.EntityID
			err     error
			message string
		}{
			{"Destination too small", src, 0, 5, small, small.ID(), stream.ErrCapacity, "Read request destination too small"},
			{"Element type mismatch", src, 0, 5, other, other.ID(), stream.ErrTypeMismatch, "Read request element type mismatch"},
			{"Destination not writable", src, 0, 5, readOnly, readOnly.ID(), stream.ErrNotWritable, "Read request destination is not writable"},
			{"Start before the source", src, 20, 1, small, small.ID(), stream.ErrOutOfRange, "Read request outside the source range"},
			{"Source without data", empty, 0, 1, small, small.ID(), stream.ErrNoData, "Read request on a stream without data"},
			{"Unknown destination", src, 0, 1, nil, 0, stream.ErrDestinationNotFound, "Read request destination not found"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var before []byte
				var structure stream.Structure
				if tt.dest != nil {
					before = append([]byte(nil), tt.dest.Bytes()...)
					structure = tt.dest.Structure()
				}

				err := tt.source.ReadRequest(tt.start, tt.count, tt.destID)
				require.ErrorIs(t, err, tt.err)
				assert.NotEqual(t, models.ClassNone, models.Class(err))
				assert.Equal(t, 1, logs.FilterMessage(tt.message).Len())

				if tt.dest != nil {
					assert.Equal(t, before, tt.dest.Bytes())
					assert.Equal(t, structure, tt.dest.Structure())
					assert.Equal(t, 0, tt.dest.Properties().Len())
				}
			})
		}
	})
}

func TestCreateRemote(t *testing.T) {
	t.Run("Mirror of a buffer", func(t *testing.T) {
		r, _ := newRegistry(t, Factory{})
		a := ramp(t, r, fields.Uint16, 100, 0, 3)

		b, err := CreateRemote(r, a, nil, true)
		require.NoError(t, err)
		require.NoError(t, b.Refresh())

		assert.Equal(t, a.ElementType(), b.ElementType())
		assert.True(t, b.IsRemote())
		assert.True(t, b.CanRefresh())
		assert.Same(t, a, b.InputSource())
		assert.Equal(t, a.Bytes(), b.Bytes())
		assert.Equal(t, a.Checksum(), b.Checksum())
		assert.Equal(t, []models.Entity{a}, b.CollectDependencies(nil))
	})

	t.Run("Structure follows the source type", func(t *testing.T) {
		r, _ := newRegistry(t, Factory{})
		a := ramp(t, r, fields.Uint16, 16, 0, 1)
		b, err := CreateRemote(r, a, nil, false)
		require.NoError(t, err)
		require.NoError(t, b.Refresh())

		a.CreateBuffer(fields.Float32, 0, 16)
		for i := uint64(0); i < 16; i++ {
			a.SetValueAt(i, float64(i)/4)
		}
		require.NoError(t, b.Refresh())
		assert.Equal(t, fields.Float32, b.ElementType())
		assert.Equal(t, 3.75, b.ValueAt(15))
	})

	t.Run("Index buffer is cloned and refreshed", func(t *testing.T) {
		r, _ := newRegistry(t, Factory{})
		a := ramp(t, r, fields.Float64, 8, 0, 0.5)
		index := mustCreate(t, r, a)
		index.CreateBufferAsIndex(0, 8)
		a.SetIndexBuffer(index)

		b, err := CreateRemote(r, a, nil, true)
		require.NoError(t, err)
		mirrored := b.IndexBuffer()
		require.NotNil(t, mirrored)
		assert.NotSame(t, index, mirrored)
		assert.True(t, mirrored.IsOwnedBy(b))
		assert.Same(t, index, mirrored.InputSource())

		require.NoError(t, b.Refresh())
		assert.Equal(t, index.Bytes(), mirrored.Bytes())
		assert.Equal(t, 7.0, mirrored.ValueAt(7))

		r.Delete(b.ID())
		_, ok := r.Find(mirrored.ID())
		assert.False(t, ok, "the mirrored index is owned by the clone")
	})

	t.Run("Mirror of a plain stream", func(t *testing.T) {
		r, _ := newRegistry(t, Factory{})
		e, ok := r.CreateByName(stream.GeneratorTypeName)
		require.True(t, ok)
		gen := e.(*stream.Generator)
		typ, _ := r.Type(stream.GeneratorTypeName)
		require.NoError(t, r.Add(gen, nil, typ, "bench", true))
		gen.SetFunc(func(i uint64) float64 { return float64(i * i) })
		gen.Configure(fields.Int64, 10, 5)

		b, err := CreateRemote(r, gen, nil, true)
		require.NoError(t, err)
		assert.Equal(t, "bench", b.Context())
		assert.Equal(t, uint64(10), b.FirstIndex())
		assert.Nil(t, b.IndexBuffer())

		require.NoError(t, b.Refresh())
		assert.Equal(t, fields.Int64, b.ElementType())
		assert.Equal(t, 100.0, b.ValueAtLogical(10))
		assert.Equal(t, 196.0, b.ValueAtLogical(14))
	})

	t.Run("Unreadable source", func(t *testing.T) {
		r, logs := newRegistry(t, Factory{})
		a := ramp(t, r, fields.Uint8, 4, 0, 1)
		a.SetReadable(false)
		before := r.Len()

		_, err := CreateRemote(r, a, nil, true)
		require.ErrorIs(t, err, stream.ErrNotReadable)
		assert.Equal(t, before, r.Len())
		assert.Equal(t, 1, logs.FilterMessage("Remote buffer source is not readable").Len())

		_, err = CreateRemote(r, nil, nil, true)
		require.ErrorIs(t, err, ErrNilSource)
	})

	t.Run("Source deletion reverts to self", func(t *testing.T) {
		r, _ := newRegistry(t, Factory{})
		a := ramp(t, r, fields.Uint16, 4, 0, 1)
		b, err := CreateRemote(r, a, nil, true)
		require.NoError(t, err)
		require.Equal(t, 2, a.Events().Len(bus.AboutToDelete), "own cascade snapshot plus the mirror")

		r.Delete(a.ID())
		assert.False(t, b.IsRemote())
		assert.False(t, b.CanRefresh())
		assert.Same(t, b, b.InputSource())
		require.ErrorIs(t, b.Refresh(), ErrNotRemote)
	})

	t.Run("Destroyed mirror unsubscribes", func(t *testing.T) {
		r, _ := newRegistry(t, Factory{})
		a := ramp(t, r, fields.Uint16, 4, 0, 1)
		b, err := CreateRemote(r, a, nil, true)
		require.NoError(t, err)
		before := a.Events().Len(bus.AboutToDelete)

		r.Delete(b.ID())
		assert.Equal(t, before-1, a.Events().Len(bus.AboutToDelete))
	})
}

func TestIndexBuffer(t *testing.T) {
	t.Run("Owned index is deleted with its buffer", func(t *testing.T) {
		r, _ := newRegistry(t, Factory{})
		parent := mustCreate(t, r, nil)
		parent.CreateBuffer(fields.Float64, 0, 4)
		index := mustCreate(t, r, parent)
		index.CreateBufferAsIndex(0, 4)

		assigned := 0
		parent.Events().Subscribe(bus.IndexAssigned, func(bus.Event) { assigned++ })
		parent.SetIndexBuffer(index)
		assert.Equal(t, 1, assigned)
		assert.Empty(t, parent.CollectDependencies(nil), "an owned index is not a prerequisite")

		r.Delete(parent.ID())
		_, ok := r.Find(index.ID())
		assert.False(t, ok)
		_, ok = r.Find(parent.ID())
		assert.False(t, ok)
	})

	t.Run("Referenced index survives", func(t *testing.T) {
		r, _ := newRegistry(t, Factory{})
		index := mustCreate(t, r, nil)
		index.CreateBufferAsIndex(0, 4)
		subscribers := index.Events().Len(bus.AboutToDelete)
		parent := mustCreate(t, r, nil)
		parent.SetIndexBuffer(index)
		assert.Equal(t, []models.Entity{index}, parent.CollectDependencies(nil))

		r.Delete(parent.ID())
		_, ok := r.Find(index.ID())
		assert.True(t, ok)
		assert.Equal(t, subscribers, index.Events().Len(bus.AboutToDelete))
	})

	t.Run("Index deleted elsewhere clears the reference", func(t *testing.T) {
		r, _ := newRegistry(t, Factory{})
		parent := mustCreate(t, r, nil)
		index := mustCreate(t, r, parent)
		parent.SetIndexBuffer(index)

		r.Delete(index.ID())
		assert.Nil(t, parent.IndexBuffer())

		r.Delete(parent.ID())
		_, ok := r.Find(parent.ID())
		assert.False(t, ok)
	})

	t.Run("Index reassigned to another owner", func(t *testing.T) {
		r, _ := newRegistry(t, Factory{})
		parent := mustCreate(t, r, nil)
		keeper := mustCreate(t, r, nil)
		index := mustCreate(t, r, parent)
		parent.SetIndexBuffer(index)
		index.SetOwner(keeper)

		r.Delete(parent.ID())
		_, ok := r.Find(index.ID())
		assert.True(t, ok)
	})
}
