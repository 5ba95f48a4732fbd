package audit

import (
	"encoding/json"
	"time"
)

// Entry is one row of the append-only audit ledger. Old and New hold
// JSON snapshots of the record before and after the change; creates
// leave Old empty and deletes leave New empty. Rows are never updated
// or removed.
type Entry struct {
	AuditID    string          `db:"audit_id" json:"audit_id"`
	ActorID    string          `db:"actor_id" json:"actor_id"`
	Action     string          `db:"action" json:"action"`
	EntityKind string          `db:"entity_kind" json:"entity_kind"`
	EntityID   string          `db:"entity_id" json:"entity_id"`
	Old        json.RawMessage `db:"old_values" json:"old_values,omitempty"`
	New        json.RawMessage `db:"new_values" json:"new_values,omitempty"`
	At         time.Time       `db:"at" json:"at"`
}

const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)
