package models

import (
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/zeusync/dataobjects/internal/core/events/bus"
	"github.com/zeusync/dataobjects/internal/core/observability/log"
)

// Registry is the sole owner of all entities and the only place ids and unique ids are
// minted or retired.
//
// A single mutex guards id generation, the id and unique-id tables and the type catalog.
// It is never held while entity hooks or notifications run, so hooks may call back into the
// registry. Entity-internal state is not synchronized here.
type Registry struct {
	mu      sync.Mutex
	log     log.Log
	entries arena
	unique  map[string]EntityID

	types      map[string]*TypeDescriptor
	typeOrder  []*TypeDescriptor
	typeSerial uint32
}

func NewRegistry(logger log.Log) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Registry{
		log:    logger,
		unique: make(map[string]EntityID),
		types:  make(map[string]*TypeDescriptor),
	}
}

func (r *Registry) Log() log.Log { return r.log }

// RegisterFactory adds every type f declares to the catalog. A name already in the catalog
// refuses the whole factory.
func (r *Registry) RegisterFactory(f Factory) error {
	if f == nil {
		return fmt.Errorf("%w: nil factory", ErrValidation)
	}
	specs := f.Types()

	r.mu.Lock()
	for i, spec := range specs {
		_, taken := r.types[spec.Name]
		if taken || slices.ContainsFunc(specs[:i], func(s TypeSpec) bool { return s.Name == spec.Name }) {
			r.mu.Unlock()
			r.log.Error("Type already registered", log.String("type", spec.Name))
			return fmt.Errorf("%w: %s", ErrTypeRegistered, spec.Name)
		}
	}
	for _, spec := range specs {
		r.typeSerial++
		t := &TypeDescriptor{id: r.typeSerial, fullName: spec.Name, kind: spec.Kind, factory: f}
		r.types[spec.Name] = t
		r.typeOrder = append(r.typeOrder, t)
	}
	r.mu.Unlock()

	for _, spec := range specs {
		r.log.Debug("Type registered", log.String("type", spec.Name), log.Stringer("kind", spec.Kind))
	}
	return nil
}

// Type looks up a catalog entry by full name.
func (r *Registry) Type(name string) (*TypeDescriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.types[name]
	return t, ok
}

// Types returns the catalog in registration order.
func (r *Registry) Types() []*TypeDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.typeOrder)
}

// Create asks t's factory for a raw entity. The entity has no identity until Add.
func (r *Registry) Create(t *TypeDescriptor) (Entity, bool) {
	if t == nil || t.factory == nil {
		r.log.Error("Cannot create entity without a type")
		return nil, false
	}
	e := t.factory.Build(t)
	if e == nil {
		r.log.Warn("Factory cannot build type", log.String("type", t.fullName))
		return nil, false
	}
	return e, true
}

// CreateByName resolves name in the catalog and calls Create.
func (r *Registry) CreateByName(name string) (Entity, bool) {
	t, ok := r.Type(name)
	if !ok {
		r.log.Error("Unknown type", log.String("type", name))
		return nil, false
	}
	return r.Create(t)
}

// Add registers e: it receives a fresh id, a unique id (a preset one is kept when still free,
// otherwise a random one is minted), a default name when it has none, and the owner
// back-reference.
func (r *Registry) Add(e Entity, owner Entity, t *TypeDescriptor, context string, public bool) error {
	if e == nil {
		r.log.Error("Cannot add nil entity")
		return ErrNilEntity
	}
	if t == nil {
		r.log.Error("Cannot add entity without a type")
		return ErrNilType
	}
	b := e.base()
	if b.registry != nil {
		r.log.Error("Entity already registered", log.Uint64("id", uint64(b.id)))
		return ErrAlreadyRegistered
	}

	r.mu.Lock()
	id, ok := r.entries.insert(e)
	if !ok {
		r.mu.Unlock()
		r.log.Fatal("Entity id space exhausted")
		return ErrIDSpaceExhausted
	}
	uniqueID := b.uniqueID
	if _, taken := r.unique[uniqueID]; uniqueID == "" || taken {
		uniqueID = r.freshUniqueIDLocked()
	}
	r.unique[uniqueID] = id
	n := t.instances.Add(1)
	r.mu.Unlock()

	b.id = id
	b.uniqueID = uniqueID
	b.typ = t
	b.context = context
	b.public = public
	b.registry = r
	b.logger = r.log.With(log.Uint64("entity", uint64(id)), log.String("type", t.fullName))
	if b.name == "" {
		b.name = defaultName(t.fullName, n)
	}
	if owner != nil {
		b.SetOwner(owner)
	}
	return nil
}

func defaultName(fullName string, n uint64) string {
	if n <= 1 {
		return fullName
	}
	return fullName + " " + strconv.FormatUint(n, 10)
}

func (r *Registry) freshUniqueIDLocked() string {
	for {
		candidate := uuid.NewString()
		if _, taken := r.unique[candidate]; !taken {
			return candidate
		}
	}
}

func (r *Registry) Find(id EntityID) (Entity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries.get(id)
}

func (r *Registry) FindUnique(uniqueID string) (Entity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.unique[uniqueID]
	if !ok {
		return nil, false
	}
	return r.entries.get(id)
}

// ReplaceUniqueID moves the mapping for old to newID. It refuses, without mutating anything,
// when newID belongs to another entity or old is unknown.
func (r *Registry) ReplaceUniqueID(old, newID string) error {
	if old == newID {
		return nil
	}

	r.mu.Lock()
	id, ok := r.unique[old]
	if !ok {
		r.mu.Unlock()
		r.log.Error("Unique id not found", log.String("unique_id", old))
		return fmt.Errorf("%w: %s", ErrEntityNotFound, old)
	}
	if other, taken := r.unique[newID]; taken && other != id {
		r.mu.Unlock()
		r.log.Error("Unique id already in use", log.String("unique_id", newID), log.Uint64("owner", uint64(other)))
		return fmt.Errorf("%w: %s", ErrUniqueIDTaken, newID)
	}
	e, ok := r.entries.get(id)
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEntityNotFound, old)
	}
	delete(r.unique, old)
	r.unique[newID] = id
	e.base().uniqueID = newID
	r.mu.Unlock()

	e.Events().Publish(bus.Event{Kind: bus.Renamed, Source: uint64(id), Data: newID})
	return nil
}

// Delete destroys the entity with id: the pre-deletion notification fires, the entity's
// cascade hook runs (it may delete dependents re-entrantly), the entity is destroyed, and
// only then are the id and unique id captured up front erased from the tables.
// Unknown ids are ignored.
//
// A cascade hook returning false keeps the entity live, but the pre-deletion notification has
// already been delivered: owned entities have cleared their owner reference and mirrors have
// reverted to themselves. Those links are not restored.
func (r *Registry) Delete(id EntityID) {
	e, ok := r.Find(id)
	if !ok {
		return
	}
	b := e.base()
	if b.deleting {
		return
	}
	b.deleting = true
	uniqueID := b.uniqueID

	e.Events().Publish(bus.Event{Kind: bus.AboutToDelete, Source: uint64(id)})

	if !e.CascadeDelete() {
		b.deleting = false
		r.log.Warn("Deletion refused by cascade hook", log.Uint64("id", uint64(id)), log.String("name", b.name))
		return
	}

	if d, ok := e.(Destroyer); ok {
		d.Destroy()
	}
	b.release()

	r.mu.Lock()
	r.entries.remove(id)
	if mapped, ok := r.unique[uniqueID]; ok && mapped == id {
		delete(r.unique, uniqueID)
	}
	if mapped, ok := r.unique[b.uniqueID]; ok && mapped == id {
		delete(r.unique, b.uniqueID)
	}
	r.mu.Unlock()

	r.log.Debug("Entity deleted", log.Uint64("id", uint64(id)), log.String("name", b.name))
}

// DeleteAll deletes every entity kind by kind: displays, processors, devices, then sources.
func (r *Registry) DeleteAll() {
	for _, kind := range deleteOrder {
		// snapshot first, deletion may mutate the tables
		for _, e := range r.Entities(kind) {
			r.Delete(e.ID())
		}
	}
}

// Entities returns the live entities of kind in discovery (id) order.
func (r *Registry) Entities(kind Kind) []Entity {
	r.mu.Lock()
	var out []Entity
	r.entries.each(func(_ EntityID, e Entity) {
		if t := e.Type(); t != nil && t.kind == kind {
			out = append(out, e)
		}
	})
	r.mu.Unlock()

	slices.SortFunc(out, func(a, b Entity) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		default:
			return 0
		}
	})
	return out
}

// Len returns the number of live entities.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries.live
}
