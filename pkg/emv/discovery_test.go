package emv

import (
	"testing"

	"github.com/go-emv/emvscan/pkg/iso7816"
	"github.com/go-emv/emvscan/pkg/tlv"
)

// scriptedTransmitter replays a fixed sequence of raw responses, one per
// Transmit call, regardless of what command was sent. Good enough for
// driving the discovery state machine through a literal scenario.
type scriptedTransmitter struct {
	responses [][]byte
	i         int
}

func (s *scriptedTransmitter) Transmit(cmd []byte) ([]byte, error) {
	if s.i >= len(s.responses) {
		// Out of script: treat as end-of-file so SFI sweeps terminate.
		return tlv.Hex("6A 82"), nil
	}
	resp := s.responses[s.i]
	s.i++
	return resp, nil
}

func sw(data []byte, sw1, sw2 byte) []byte {
	return append(append([]byte{}, data...), sw1, sw2)
}

func TestDriver_DiscoverDirectory_EmptyPPSEYieldsNoCandidates(t *testing.T) {
	// Scenario 1: PPSE directory response is 6F 00 (empty), which is a
	// SELECT *success* with no application data, so DirectoryUnavailable is
	// never raised by DiscoverDirectory itself -- the fallback-AID path
	// engages because EnumerateAIDs on an empty body yields no candidates.
	transport := &scriptedTransmitter{responses: [][]byte{
		sw(tlv.Hex("6F 00"), 0x90, 0x00), // PPSE select: success, empty body
		sw(nil, 0x6A, 0x82),              // fallback AID 1 (Visa): not found
		sw(nil, 0x6A, 0x82),              // fallback AID 2 (Mastercard): not found
	}}
	cls, _ := iso7816.NewClass(0x00)
	client := iso7816.NewClient(transport)
	driver := NewDriver(client, cls, DefaultConfig())

	body, err := driver.DiscoverDirectory()
	if err != nil {
		t.Fatalf("DiscoverDirectory: %v", err)
	}

	candidates := EnumerateAIDs(body)
	if len(candidates) != 0 {
		t.Fatalf("expected no AID candidates from empty directory, got %v", candidates)
	}
}

func TestDriver_Run_FullScenario(t *testing.T) {
	// Scenario 2 + 3 combined: PPSE select returns one AID, application
	// SELECT returns a minimal FCI, SFI 1 record 1 carries PAN + expiry,
	// and every other SFI/record comes back not-found immediately.
	ppseBody := tlv.Hex("4F 07 A0 00 00 00 03 10 10")
	fciBody := tlv.Hex(
		"6F 17",
		"84 07 A0 00 00 00 03 10 10",
		"A5 0C",
		"50 04 56 49 53 41",
		"87 01 01",
	)
	record := tlv.Hex("70 13", "5A 08 47 61 73 90 01 01 00 10", "5F 24 03 25 12 31")

	transport := &scriptedTransmitter{responses: [][]byte{
		sw(ppseBody, 0x90, 0x00), // PPSE select
		sw(fciBody, 0x90, 0x00),  // application select
		sw(record, 0x90, 0x00),   // SFI=1 record=1
		sw(nil, 0x6A, 0x82),      // SFI=1 record=2: not found, sweep ends
		sw(nil, 0x6A, 0x82),      // SFI=2 record=1: not found
		sw(nil, 0x6A, 0x82),      // SFI=3 record=1: not found
		sw(nil, 0x6A, 0x82),      // SFI=4 record=1: not found
	}}
	cls, _ := iso7816.NewClass(0x00)
	client := iso7816.NewClient(transport)
	driver := NewDriver(client, cls, DefaultConfig())

	session, err := driver.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantAID := tlv.Hex("A0 00 00 00 03 10 10")
	if string(session.SelectedAID) != string(wantAID) {
		t.Errorf("SelectedAID = % X, want % X", session.SelectedAID, wantAID)
	}
	if session.FCI.ApplicationLabel != "VISA" {
		t.Errorf("ApplicationLabel = %q, want VISA", session.FCI.ApplicationLabel)
	}
	if session.Cardholder.PAN != "4761739001010010" {
		t.Errorf("PAN = %q, want 4761739001010010", session.Cardholder.PAN)
	}
	if session.Cardholder.PANMasked != "476173******0010" {
		t.Errorf("PANMasked = %q, want 476173******0010", session.Cardholder.PANMasked)
	}
	if session.Cardholder.ExpiryDate != "2025-12-31" {
		t.Errorf("ExpiryDate = %q, want 2025-12-31", session.Cardholder.ExpiryDate)
	}
}

func TestDriver_ReadRecords_TerminatesOnAccessDenied(t *testing.T) {
	transport := &scriptedTransmitter{responses: [][]byte{
		sw(nil, 0x69, 0x85), // SFI=1 record=1: conditions not satisfied
		sw(nil, 0x6A, 0x82), // SFI=2..4: not found
		sw(nil, 0x6A, 0x82),
		sw(nil, 0x6A, 0x82),
	}}
	cls, _ := iso7816.NewClass(0x00)
	client := iso7816.NewClient(transport)
	driver := NewDriver(client, cls, DefaultConfig())

	records, err := driver.ReadRecords()
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records read, got %v", records)
	}
}

func TestDriver_ReadRecords_MaxConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SFIRange = []byte{1}
	cfg.MaxConsecutiveFailures = 3

	transport := &scriptedTransmitter{responses: [][]byte{
		sw(nil, 0x6F, 0x00), // unrecognized error #1
		sw(nil, 0x6F, 0x00), // unrecognized error #2
		sw(nil, 0x6F, 0x00), // unrecognized error #3: sweep should stop here
	}}
	cls, _ := iso7816.NewClass(0x00)
	client := iso7816.NewClient(transport)
	driver := NewDriver(client, cls, cfg)

	records, err := driver.ReadRecords()
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records read, got %v", records)
	}
	if transport.i != 3 {
		t.Errorf("expected exactly 3 transmits before giving up, got %d", transport.i)
	}
}
