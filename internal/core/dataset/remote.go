package dataset

import (
	"github.com/zeusync/dataobjects/internal/core/events/bus"
	"github.com/zeusync/dataobjects/internal/core/models"
	"github.com/zeusync/dataobjects/internal/core/observability/log"
	"github.com/zeusync/dataobjects/internal/core/stream"
)

// InputSource returns the stream this buffer mirrors, or the buffer itself when it is self-sourced.
func (d *DataSet) InputSource() stream.Source {
	if d.input == nil {
		return d
	}
	return d.input
}

// SetInputSource makes the buffer mirror src. Passing nil or the buffer itself makes it
// self-sourced again. The buffer reverts on its own when src is deleted.
func (d *DataSet) SetInputSource(src stream.Source) {
	d.revertInput()
	if src == nil || src == stream.Source(d) {
		return
	}
	d.input = src
	d.inputSub = src.Events().Subscribe(bus.AboutToDelete, func(bus.Event) {
		d.Log().Info("Input source deleted, buffer reverted to self", log.String("source", src.UniqueID()))
		d.revertInput()
	})
}

func (d *DataSet) revertInput() {
	if d.inputSub != nil {
		d.inputSub.Cancel()
		d.inputSub = nil
	}
	d.input = nil
}

func (d *DataSet) IsRemote() bool { return d.input != nil }

func (d *DataSet) CanRefresh() bool { return d.input != nil && d.input.Readable() }

// Refresh pulls the mirrored window from the input source, then refreshes the index buffer when
// it is itself refreshable. The local buffer is recreated first when the source's element type
// differs or the buffer cannot hold the window.
func (d *DataSet) Refresh() error {
	if !d.CanRefresh() {
		d.Log().Error("Refresh without a readable input source")
		return ErrNotRemote
	}
	src := d.input

	count := d.Count()
	if count == 0 {
		count = d.DefaultBufferElements()
	}
	if src.ElementType() != d.ElementType() || d.Capacity() < count {
		d.CreateBuffer(src.ElementType(), d.FirstIndex(), count)
	}
	if err := src.ReadRequest(d.FirstIndex(), count, d.ID()); err != nil {
		return err
	}

	if d.index != nil && d.index.CanRefresh() {
		return d.index.Refresh()
	}
	return nil
}

// CreateRemote registers a new buffer mirroring source under owner. The clone takes the
// source's element type, first index and preferred size; a buffer source's index buffer is
// cloned recursively, parented to the new clone. Unreadable sources are refused.
func CreateRemote(reg *models.Registry, source stream.Source, owner models.Entity, public bool) (*DataSet, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	logger := reg.Log()
	if source == nil {
		logger.Error("Remote buffer requested without a source")
		return nil, ErrNilSource
	}
	if !source.Readable() {
		logger.Error("Remote buffer source is not readable", log.String("source", source.UniqueID()))
		return nil, stream.ErrNotReadable
	}

	clone, err := Create(reg, owner, source.Context(), public)
	if err != nil {
		logger.Error("Remote buffer not created", log.Error(err))
		return nil, err
	}

	elements := source.DefaultBufferElements()
	if elements == 0 {
		elements = source.Count()
	}
	clone.CreateBuffer(source.ElementType(), source.FirstIndex(), elements)
	clone.SetInputSource(source)

	if buf, ok := source.(*DataSet); ok && buf.index != nil {
		index, err := CreateRemote(reg, buf.index, clone, public)
		if err != nil {
			clone.Log().Warn("Index buffer not mirrored", log.Error(err))
			return clone, nil
		}
		clone.SetIndexBuffer(index)
	}

	logger.Debug("Remote buffer created",
		log.String("source", source.UniqueID()), log.String("clone", clone.UniqueID()))
	return clone, nil
}
