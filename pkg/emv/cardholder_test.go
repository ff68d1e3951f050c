package emv

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-emv/emvscan/pkg/tlv"
)

func TestExtractCardholderData_PANAndExpiry(t *testing.T) {
	records := RecordMap{
		1: {1: tlv.Hex("70 13", "5A 08 47 61 73 90 01 01 00 10", "5F 24 03 25 12 31")},
	}

	rec := ExtractCardholderData(records)

	if rec.PAN != "4761739001010010" {
		t.Errorf("PAN = %q", rec.PAN)
	}
	if rec.PANMasked != "476173******0010" {
		t.Errorf("PANMasked = %q", rec.PANMasked)
	}
	if rec.ExpiryDate != "2025-12-31" {
		t.Errorf("ExpiryDate = %q", rec.ExpiryDate)
	}
}

func TestExtractCardholderData_Track2Only(t *testing.T) {
	records := RecordMap{
		1: {1: tlv.Hex("70 0F", "57 0D 47 61 73 90 01 01 00 10 D2 51 22 01 23 45 6F")},
	}

	rec := ExtractCardholderData(records)

	if rec.PAN != "" {
		t.Errorf("PAN = %q, want empty (only track-2 derived fields should fill)", rec.PAN)
	}
	if rec.Track2PAN != "4761739001010010" {
		t.Errorf("Track2PAN = %q", rec.Track2PAN)
	}
	if rec.Track2PANMasked != "476173******0010" {
		t.Errorf("Track2PANMasked = %q", rec.Track2PANMasked)
	}
	if rec.Track2Expiry != "2025-12" {
		t.Errorf("Track2Expiry = %q, want 2025-12", rec.Track2Expiry)
	}
}

func TestExtractCardholderData_PerRecordScavenging(t *testing.T) {
	// Malformed outer wrapper defeats strict decode at the concatenated
	// level, but each individual record is still scavenged for its fields.
	badOuter := tlv.Hex("99 FF")
	goodRecord := tlv.Hex("5A 08 47 61 73 90 01 01 00 10")

	records := RecordMap{
		1: {1: badOuter},
		2: {1: goodRecord},
	}

	rec := ExtractCardholderData(records)
	if rec.PAN != "4761739001010010" {
		t.Errorf("PAN = %q, want scavenged PAN despite malformed sibling record", rec.PAN)
	}
}

func TestPANMasking_Invariant(t *testing.T) {
	pans := []string{
		"4761739001010010",
		"1234567890",
		"411111111111111111",
	}
	for _, pan := range pans {
		masked := maskPAN(pan)
		if len(masked) != len(pan) {
			t.Errorf("maskPAN(%q) length = %d, want %d", pan, len(masked), len(pan))
		}
		if masked[:6] != pan[:6] {
			t.Errorf("maskPAN(%q) first six = %q, want %q", pan, masked[:6], pan[:6])
		}
		if masked[len(masked)-4:] != pan[len(pan)-4:] {
			t.Errorf("maskPAN(%q) last four = %q, want %q", pan, masked[len(masked)-4:], pan[len(pan)-4:])
		}
		for _, c := range masked[6 : len(masked)-4] {
			if c != '*' {
				t.Errorf("maskPAN(%q) middle character %q is not '*'", pan, c)
			}
		}
	}
}

func TestExtractCardholderData_FullRecord(t *testing.T) {
	records := RecordMap{
		1: {1: tlv.Hex(
			"70 20",
			"5A 08 47 61 73 90 01 01 00 10",
			"5F 24 03 25 12 31",
			"5F 20 08 4A 4F 48 4E 20 44 4F 45",
			"5F 30 02 12 01",
		)},
	}

	got := ExtractCardholderData(records)
	want := CardholderRecord{
		PAN:            "4761739001010010",
		PANMasked:      "476173******0010",
		ExpiryDate:     "2025-12-31",
		CardholderName: "JOHN DOE",
		ServiceCode:    "1201",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractCardholderData() mismatch (-want +got):\n%s", diff)
	}
}
