package dataset

import (
	"math/bits"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/dataobjects/internal/core/events/bus"
	"github.com/zeusync/dataobjects/internal/core/fields"
	"github.com/zeusync/dataobjects/internal/core/models"
	"github.com/zeusync/dataobjects/internal/core/observability/log"
	"github.com/zeusync/dataobjects/internal/core/stream"
)

var (
	_ stream.Reader    = (*DataSet)(nil)
	_ stream.Sink      = (*DataSet)(nil)
	_ models.Destroyer = (*DataSet)(nil)
)

// StorageMode tells who owns a buffer's bytes.
type StorageMode uint8

const (
	// Owned storage is allocated and released by the DataSet.
	Owned StorageMode = iota
	// External storage belongs to the caller; the DataSet only reads and writes through it.
	External
)

func (m StorageMode) String() string {
	if m == External {
		return "external"
	}
	return "owned"
}

// DataSet is a typed, strided buffer that is also a stream. It either owns its storage or
// wraps caller memory, may mirror another stream (its input source) and may reference an
// index buffer holding the X axis of its values.
//
// A DataSet is mutated from a single owning goroutine.
type DataSet struct {
	stream.Base

	mode   StorageMode
	data   []byte
	owned  []byte
	stride int

	maxBytes uint64

	input    stream.Source
	inputSub bus.Subscription

	index        *DataSet
	indexSub     bus.Subscription
	ownsIndex    bool
	selfDeleting bus.Subscription
}

// Option configures a DataSet at construction.
type Option func(*DataSet)

// WithMaxBytes caps a single owned allocation. Zero means no cap.
func WithMaxBytes(n uint64) Option {
	return func(d *DataSet) { d.maxBytes = n }
}

// WithDefaultBufferElements seeds the preferred size of mirrors of this buffer.
func WithDefaultBufferElements(n uint64) Option {
	return func(d *DataSet) { d.SetDefaultBufferElements(n) }
}

// New returns an empty, readable and writable DataSet with owned storage.
func New(opts ...Option) *DataSet {
	d := &DataSet{mode: Owned}
	d.SetReadable(true)
	d.SetWritable(true)
	for _, opt := range opts {
		opt(d)
	}

	// Subscribed first so it runs before the index's owner reference is cleared by the same
	// notification; CascadeDelete relies on the snapshot.
	d.selfDeleting = d.Events().Subscribe(bus.AboutToDelete, func(bus.Event) {
		d.ownsIndex = d.index != nil && d.index.IsOwnedBy(d)
	})
	return d
}

func (d *DataSet) IsDataSet() bool { return true }

func (d *DataSet) StorageMode() StorageMode { return d.mode }

// Stride is the distance in bytes between consecutive elements.
func (d *DataSet) Stride() int { return d.stride }

// Capacity is the number of elements the current storage can hold.
func (d *DataSet) Capacity() uint64 {
	size := d.ElementType().Size()
	if size == 0 {
		return 0
	}
	switch d.mode {
	case External:
		if len(d.data) < size || d.stride == 0 {
			return 0
		}
		return uint64((len(d.data)-size)/d.stride) + 1
	default:
		return uint64(len(d.owned) / size)
	}
}

// SetBuffer wraps caller memory holding count elements of type t, stride bytes apart. A zero
// stride means densely packed. Any owned allocation is released first.
func (d *DataSet) SetBuffer(t fields.Type, firstIndex, count uint64, data []byte, stride int) error {
	size := d.elementSize(t)
	if stride == 0 {
		stride = size
	}
	if stride < size {
		d.Log().Error("Invalid external stride", log.Int("stride", stride), log.Int("size", size))
		return ErrStride
	}
	if count > 0 && size > 0 {
		hi, need := bits.Mul64(count-1, uint64(stride))
		if hi != 0 || need+uint64(size) < need || need+uint64(size) > uint64(len(data)) {
			d.Log().Error("External buffer too short",
				log.Uint64("count", count), log.Int("stride", stride), log.Int("bytes", len(data)))
			return ErrExternalTooShort
		}
	}

	d.owned = nil
	d.mode = External
	d.data = data
	d.stride = stride
	d.UpdateStructure(t, firstIndex, count)
	d.SetDefaultBufferElements(count)
	d.SetHasData(count > 0)
	return nil
}

// CreateBuffer switches to owned storage for count elements of type t. The current allocation
// is reused when it is large enough; otherwise exactly count elements are allocated.
// Exhausting memory or the configured cap is fatal.
func (d *DataSet) CreateBuffer(t fields.Type, firstIndex, count uint64) {
	size := d.elementSize(t)
	hi, need := bits.Mul64(count, uint64(size))
	if hi != 0 || (d.maxBytes > 0 && need > d.maxBytes) {
		d.Log().Fatal("Buffer allocation exceeds limit",
			log.Stringer("type", t), log.Uint64("count", count), log.Uint64("max_bytes", d.maxBytes))
		return
	}

	if d.mode != Owned || need > uint64(len(d.owned)) {
		d.owned = d.allocate(need)
	}
	d.mode = Owned
	d.data = d.owned
	d.stride = size
	d.UpdateStructure(t, firstIndex, count)
	d.SetDefaultBufferElements(count)
	d.SetHasData(false)
}

// CreateBufferAsIndex creates an owned Size buffer holding 0..count-1.
func (d *DataSet) CreateBufferAsIndex(firstIndex, count uint64) {
	d.CreateBuffer(fields.Size, firstIndex, count)
	k, _ := fields.KernelFor(fields.Size)
	v := d.view()
	for i := 0; i < v.Len; i++ {
		k.SetScalar(v.At(i), fields.Uint64Scalar(uint64(i)))
	}
	d.SetHasData(count > 0)
}

func (d *DataSet) allocate(n uint64) (buf []byte) {
	defer func() {
		if r := recover(); r != nil {
			d.Log().Fatal("Buffer allocation failed", log.Uint64("bytes", n), log.Any("cause", r))
		}
	}()
	return make([]byte, n)
}

// elementSize validates t. Tags outside the enumeration are fatal.
func (d *DataSet) elementSize(t fields.Type) int {
	if !t.Valid() {
		d.Log().Fatal("Element type out of range", log.Stringer("type", t))
	}
	return t.Size()
}

// view covers the physical elements [0, Count).
func (d *DataSet) view() fields.View {
	size := d.ElementType().Size()
	n := int(d.Count())
	if size == 0 || n == 0 {
		return fields.View{Stride: d.stride, Elem: size}
	}
	return fields.View{Data: d.data, Stride: d.stride, Elem: size, Len: n}.Slice(0, n)
}

// View returns n elements starting at logical index start.
func (d *DataSet) View(start, n uint64) fields.View {
	return d.view().Slice(int(start-d.FirstIndex()), int(n))
}

// Ingest copies src into the first src.Len physical elements.
func (d *DataSet) Ingest(src fields.View) {
	size := d.ElementType().Size()
	dst := fields.View{Data: d.data, Stride: d.stride, Elem: size, Len: int(min(uint64(src.Len), d.Capacity()))}
	fields.Copy(dst, src)
}

func (d *DataSet) ReadRequest(start, count uint64, dest models.EntityID) error {
	return stream.Transfer(d, start, count, dest)
}

// Bytes returns the logical element bytes with strides removed.
func (d *DataSet) Bytes() []byte {
	return fields.Packed(d.view())
}

// Checksum digests the logical element bytes, so a mirror matches its source regardless of stride.
func (d *DataSet) Checksum() uint64 {
	return xxhash.Sum64(d.Bytes())
}

// IndexBuffer returns the buffer holding this buffer's X axis, if any.
func (d *DataSet) IndexBuffer() *DataSet { return d.index }

// SetIndexBuffer replaces the index buffer and publishes IndexAssigned. The reference clears
// itself when the index is deleted.
func (d *DataSet) SetIndexBuffer(index *DataSet) {
	d.dropIndex()
	if index != nil && index != d {
		d.index = index
		d.indexSub = index.Events().Subscribe(bus.AboutToDelete, func(bus.Event) {
			d.dropIndex()
		})
	}

	var id models.EntityID
	if d.index != nil {
		id = d.index.ID()
	}
	d.Events().Publish(bus.Event{Kind: bus.IndexAssigned, Source: uint64(d.ID()), Data: id})
}

func (d *DataSet) dropIndex() {
	if d.indexSub != nil {
		d.indexSub.Cancel()
		d.indexSub = nil
	}
	d.index = nil
}

// CascadeDelete deletes the index buffer when this buffer owned it at the time its deletion began.
func (d *DataSet) CascadeDelete() bool {
	if d.ownsIndex && d.index != nil {
		if reg := d.Registry(); reg != nil {
			reg.Delete(d.index.ID())
		}
	}
	d.ownsIndex = false
	return true
}

// CollectDependencies lists the input source and an index buffer owned elsewhere.
func (d *DataSet) CollectDependencies(out []models.Entity) []models.Entity {
	if d.input != nil {
		out = append(out, d.input)
	}
	if d.index != nil && !d.index.IsOwnedBy(d) {
		out = append(out, d.index)
	}
	return out
}

// Destroy releases storage and every subscription the buffer holds on other entities.
func (d *DataSet) Destroy() {
	d.revertInput()
	d.dropIndex()
	if d.selfDeleting != nil {
		d.selfDeleting.Cancel()
		d.selfDeleting = nil
	}
	d.owned = nil
	d.data = nil
}
