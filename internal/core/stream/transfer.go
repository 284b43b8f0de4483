package stream

import (
	"github.com/zeusync/dataobjects/internal/core/events/bus"
	"github.com/zeusync/dataobjects/internal/core/models"
	"github.com/zeusync/dataobjects/internal/core/observability/log"
)

// Transfer implements the read-request protocol for src.
//
// An over-long request is truncated to what the source holds. Every other problem is
// logged and returned before the destination is touched. On success the destination holds
// the copied elements at physical index 0, a copy of the source's properties, hasData set,
// its structure moved to (its type, start, n), and a NewData notification is published on
// the destination only.
func Transfer(src Reader, start, n uint64, destID models.EntityID) error {
	logger := src.Log()

	if !src.HasData() {
		logger.Error("Read request on a stream without data")
		return ErrNoData
	}

	first, count := src.FirstIndex(), src.Count()
	if start < first || start-first >= count {
		logger.Error("Read request outside the source range",
			log.Uint64("start", start), log.Uint64("first", first), log.Uint64("count", count))
		return ErrOutOfRange
	}
	if avail := count - (start - first); n > avail {
		logger.Warn("Read request truncated",
			log.Uint64("requested", n), log.Uint64("available", avail))
		n = avail
	}

	reg := src.Registry()
	if reg == nil {
		logger.Error("Read request from an unregistered stream")
		return ErrUnregistered
	}
	e, ok := reg.Find(destID)
	if !ok {
		logger.Error("Read request destination not found", log.Uint64("destination", uint64(destID)))
		return ErrDestinationNotFound
	}
	dest, ok := e.(Sink)
	if !ok {
		logger.Error("Read request destination is not a buffer", log.Uint64("destination", uint64(destID)))
		return ErrDestinationNotFound
	}
	if !dest.Writable() {
		logger.Error("Read request destination is not writable", log.Uint64("destination", uint64(destID)))
		return ErrNotWritable
	}
	if dest.Capacity() < n {
		logger.Error("Read request destination too small",
			log.Uint64("destination", uint64(destID)), log.Uint64("capacity", dest.Capacity()), log.Uint64("requested", n))
		return ErrCapacity
	}
	if dest.ElementType() != src.ElementType() {
		logger.Error("Read request element type mismatch",
			log.Stringer("source_type", src.ElementType()), log.Stringer("destination_type", dest.ElementType()))
		return ErrTypeMismatch
	}

	dest.Ingest(src.View(start, n))
	dest.ReplaceProperties(src.Properties())
	dest.SetHasData(true)
	dest.UpdateStructure(dest.ElementType(), start, n)
	dest.Events().Publish(bus.Event{Kind: bus.NewData, Source: uint64(dest.ID()), Data: src.ID()})
	return nil
}
