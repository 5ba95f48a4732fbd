// Package idgen issues the date-encoded record identifiers used across the
// system (P20260115 0001, V20260115093000 001, ...). Sequence numbers come
// from a persisted counter advanced atomically per (kind, date bucket), so
// identifiers stay unique across restarts and across concurrent callers.
package idgen

import (
	"context"
	"fmt"
	"time"

	"github.com/hms/hms/internal/platform/hmserr"
)

// Kind names a record family with its own identifier sequence.
type Kind string

const (
	KindPatient   Kind = "patient"
	KindDoctor    Kind = "doctor"
	KindBed       Kind = "bed"
	KindVisit     Kind = "visit"
	KindAdmission Kind = "admission"
	KindCharge    Kind = "charge"
	KindPayment   Kind = "payment"
	KindAudit     Kind = "audit"
	KindUser      Kind = "user"
	KindOT        Kind = "ot"
)

const (
	dayBucket    = "20060102"
	secondBucket = "20060102150405"
)

type kindSpec struct {
	prefix string
	layout string // bucket time layout; per-second for high-frequency kinds
	width  int    // minimum digits in the sequence suffix
}

var kindSpecs = map[Kind]kindSpec{
	KindPatient:   {prefix: "P", layout: dayBucket, width: 4},
	KindDoctor:    {prefix: "D", layout: dayBucket, width: 3},
	KindBed:       {prefix: "B", layout: dayBucket, width: 3},
	KindVisit:     {prefix: "V", layout: secondBucket, width: 3},
	KindAdmission: {prefix: "IPD", layout: dayBucket, width: 4},
	KindCharge:    {prefix: "C", layout: secondBucket, width: 3},
	KindPayment:   {prefix: "PAY", layout: secondBucket, width: 3},
	KindAudit:     {prefix: "LOG", layout: secondBucket, width: 3},
	KindUser:      {prefix: "U", layout: dayBucket, width: 3},
	KindOT:        {prefix: "OT", layout: secondBucket, width: 3},
}

// CounterStore advances the persisted counter for (kind, bucket) and
// returns the new value. Implementations must make the increment atomic
// with respect to concurrent callers on the same key; callers inside a
// transaction expect the increment to join that transaction.
type CounterStore interface {
	Next(ctx context.Context, kind Kind, bucket string) (int64, error)
}

// Allocator produces collision-free identifiers backed by a CounterStore.
type Allocator struct {
	store CounterStore
}

func NewAllocator(store CounterStore) *Allocator {
	return &Allocator{store: store}
}

// Allocate returns the next identifier for kind, stamped with ref. The
// counter increment and the caller's dependent insert share a transaction
// when one is open on ctx. If the store cannot advance the counter the call
// fails with an unavailable error; no provisional identifier is ever
// returned.
func (a *Allocator) Allocate(ctx context.Context, kind Kind, ref time.Time) (string, error) {
	sp, ok := kindSpecs[kind]
	if !ok {
		return "", hmserr.Validation("kind", fmt.Sprintf("unknown identifier kind %q", kind))
	}

	bucket := ref.Format(sp.layout)
	n, err := a.store.Next(ctx, kind, bucket)
	if err != nil {
		return "", hmserr.Unavailable("allocation unavailable", err)
	}

	return fmt.Sprintf("%s%s%0*d", sp.prefix, bucket, sp.width, n), nil
}
