package domain

// Action is the operation an actor attempts on an entity kind.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
)

// EntityKind names one of the four managed aggregates.
type EntityKind string

const (
	KindUser     EntityKind = "user"
	KindClient   EntityKind = "client"
	KindContract EntityKind = "contract"
	KindEvent    EntityKind = "event"
)
