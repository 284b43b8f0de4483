package bus

// Hub is a per-entity, in-process notification registry.
//
// Key characteristics:
// - Kind-based fan-out: handlers subscribe to one Kind of notification.
// - Synchronous, ordered delivery: Publish calls handlers in subscription order in the caller goroutine.
// - Re-entrant: handlers may subscribe, cancel (their own or others') or publish while a delivery runs.
//   A subscription cancelled during a delivery is not called for the remainder of that delivery.
// - Closing a hub drops every subscription; later Subscribe calls return an inactive subscription.

// Kind identifies a notification published by an entity.
type Kind uint8

const (
	// AboutToDelete fires before an entity is destroyed, while it is still registered.
	AboutToDelete Kind = iota
	// StructureChanged fires when a stream's element type, first index or count changes.
	StructureChanged
	// NewData fires on a destination stream after a successful read request.
	NewData
	// IndexAssigned fires when a buffer's index buffer reference is replaced.
	IndexAssigned
	// OwnerChanged fires when an entity's owner back-reference is set or cleared.
	OwnerChanged
	// Renamed fires when an entity's name or unique id changes.
	Renamed
)

func (k Kind) String() string {
	switch k {
	case AboutToDelete:
		return "about_to_delete"
	case StructureChanged:
		return "structure_changed"
	case NewData:
		return "new_data"
	case IndexAssigned:
		return "index_assigned"
	case OwnerChanged:
		return "owner_changed"
	case Renamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Event is the value delivered to handlers. Source is the publishing entity's id.
type Event struct {
	Kind   Kind
	Source uint64
	Data   any
}

type Handler func(Event)

// Subscription is the handle returned by Subscribe.
type Subscription interface {
	ID() string
	Kind() Kind
	IsActive() bool
	// Cancel detaches the handler. It is idempotent.
	Cancel()
}
