package model

import (
	"encoding/json"
	"time"
)

// DocumentKind names the kind of raw documents carried by an IngestJob.
type DocumentKind string

const (
	KindGenetic   DocumentKind = "genetic"
	KindBiometric DocumentKind = "biometric"
)

// IngestJob is a batch of raw upstream documents accepted for persistence.
type IngestJob struct {
	ID         string // idempotency key
	AthleteID  string
	Kind       DocumentKind
	Documents  []json.RawMessage
	ReceivedAt time.Time
}
