package models

import "math"

// EntityID encodes a 32-bit slot index in the lower bits and a 32-bit serial in the upper
// bits. The serial grows with every allocation, so ids are monotonic and never reused even
// though slots are recycled; a stale id no longer matches its slot.
type EntityID uint64

func newEntityID(index uint32, serial uint32) EntityID {
	return EntityID(uint64(serial)<<32 | uint64(index))
}

func (id EntityID) Index() uint32  { return uint32(id) }
func (id EntityID) Serial() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool   { return id == 0 }

type slot struct {
	id     EntityID
	entity Entity
}

// arena is the id -> entity table. It is not synchronized; the registry lock guards it.
type arena struct {
	slots    []slot
	freeList []uint32
	serial   uint32
	live     int
}

func (a *arena) insert(e Entity) (EntityID, bool) {
	if a.serial == math.MaxUint32 {
		return 0, false
	}
	a.serial++

	var idx uint32
	if n := len(a.freeList); n > 0 {
		idx = a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
	} else {
		if len(a.slots) == math.MaxUint32 {
			return 0, false
		}
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot{})
	}

	id := newEntityID(idx, a.serial)
	a.slots[idx] = slot{id: id, entity: e}
	a.live++
	return id, true
}

func (a *arena) get(id EntityID) (Entity, bool) {
	idx := id.Index()
	if id.IsZero() || int(idx) >= len(a.slots) {
		return nil, false
	}
	s := a.slots[idx]
	if s.id != id || s.entity == nil {
		return nil, false
	}
	return s.entity, true
}

func (a *arena) remove(id EntityID) bool {
	if _, ok := a.get(id); !ok {
		return false
	}
	idx := id.Index()
	a.slots[idx] = slot{}
	a.freeList = append(a.freeList, idx)
	a.live--
	return true
}

func (a *arena) each(fn func(EntityID, Entity)) {
	for _, s := range a.slots {
		if s.entity != nil {
			fn(s.id, s.entity)
		}
	}
}
