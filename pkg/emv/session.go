package emv

import (
	"time"

	"github.com/go-emv/emvscan/pkg/iso7816"
)

// Session is the in-memory result of a discovery run, per spec §3/§4.5: an
// ordered aggregation of application metadata, records by SFI, extracted
// cardholder fields, and the APDU trace. It is finalized once by Run and
// is read-only to downstream emitters; equality is by value.
type Session struct {
	StartedAt   time.Time
	SelectedAID []byte
	FCI         FCIRecord
	RawFCI      []byte
	Records     RecordMap
	Cardholder  CardholderRecord
	APDULog     iso7816.APDULog
}

// NewSession creates an empty Session stamped with the current wall-clock
// time, per spec §3's Session lifecycle: "created on discovery start,
// populated during discovery, consumed once by the report emitter, then
// dropped."
func NewSession() *Session {
	return &Session{
		StartedAt: time.Now(),
		Records:   make(RecordMap),
	}
}
