package iso7816

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Direction identifies which side of a physical transaction an APDULogEntry
// records.
type Direction int

const (
	// DirRequest is a command sent to the card.
	DirRequest Direction = iota
	// DirResponse is a response received from the card.
	DirResponse
)

// APDULogEntry is one line of the audit trail: a single physical
// request or response, timestamped to millisecond precision.
type APDULogEntry struct {
	Timestamp time.Time
	Direction Direction
	HexBytes  string
	SW1, SW2  byte // only meaningful for DirResponse
}

// Line renders the entry in the session artifact's trace format:
// "HH:MM:SS.mmm > <hex>" for requests, "HH:MM:SS.mmm < <hex> SW1=0xNN SW2=0xNN"
// for responses.
func (e APDULogEntry) Line() string {
	ts := e.Timestamp.Format("15:04:05.000")
	if e.Direction == DirRequest {
		return fmt.Sprintf("%s > %s", ts, e.HexBytes)
	}
	return fmt.Sprintf("%s < %s SW1=0x%02X SW2=0x%02X", ts, e.HexBytes, e.SW1, e.SW2)
}

// APDULog is an append-only, chronologically ordered record of every
// physical APDU exchange performed during a session, including GET RESPONSE
// and 6Cxx-retry follow-ups. It is a faithful serialization of wall-clock
// ordering: entries are appended exactly as transmit calls complete.
type APDULog []APDULogEntry

// Append records a request/response pair in order.
func (l *APDULog) Append(rawCmd []byte, resp *ResponseAPDU) {
	now := time.Now()
	*l = append(*l,
		APDULogEntry{
			Timestamp: now,
			Direction: DirRequest,
			HexBytes:  strings.ToUpper(hex.EncodeToString(rawCmd)),
		},
		APDULogEntry{
			Timestamp: now,
			Direction: DirResponse,
			HexBytes:  strings.ToUpper(hex.EncodeToString(resp.Data)),
			SW1:       resp.Status.SW1(),
			SW2:       resp.Status.SW2(),
		},
	)
}

// Lines renders the full log using the trace format of Line.
func (l APDULog) Lines() []string {
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = e.Line()
	}
	return out
}
