package emv

import (
	"fmt"

	"github.com/go-emv/emvscan/pkg/iso7816"
)

// TransportError re-exports iso7816's fatal transport failure type so
// callers of this package never need to import iso7816 directly to
// type-switch on it.
type TransportError = iso7816.TransportError

// NoReader indicates the PC/SC subsystem exposed no usable reader.
type NoReader struct {
	Detail string
}

func (e *NoReader) Error() string { return fmt.Sprintf("no reader available: %s", e.Detail) }

// CardAbsent indicates a reader was found but no card responded to
// connect.
type CardAbsent struct {
	Detail string
}

func (e *CardAbsent) Error() string { return fmt.Sprintf("no card present: %s", e.Detail) }

// DirectoryUnavailable indicates every configured directory AID failed to
// select; the driver falls back to the constant AID list.
type DirectoryUnavailable struct {
	Tried []string
}

func (e *DirectoryUnavailable) Error() string {
	return fmt.Sprintf("no application directory selectable, tried: %v", e.Tried)
}

// NoApplicationSelectable indicates both directory-derived AIDs and the
// fallback AID list were exhausted without a successful SELECT.
type NoApplicationSelectable struct {
	Attempts int
}

func (e *NoApplicationSelectable) Error() string {
	return fmt.Sprintf("no application selectable after %d attempt(s)", e.Attempts)
}

// NoRecordsReadable indicates the record sweep produced an empty RecordMap
// across every configured SFI.
type NoRecordsReadable struct {
	SFIRange []byte
}

func (e *NoRecordsReadable) Error() string {
	return fmt.Sprintf("no records readable across SFI range %v", e.SFIRange)
}
