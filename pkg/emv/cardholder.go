package emv

import (
	"strings"

	"github.com/go-emv/emvscan/pkg/ber"
)

// CardholderRecord is the recovered cardholder-visible data, per spec's
// Cardholder record (§3). Fields are populated best-effort: a missing
// value means no strategy in the pipeline recovered it plausibly.
type CardholderRecord struct {
	PAN              string
	PANMasked        string
	ExpiryDate       string
	CardholderName   string
	Track2Equivalent string
	ServiceCode      string
	Track2PAN        string
	Track2PANMasked  string
	Track2Expiry     string
}

// cardholderScavengeSignatures are the byte patterns scavenge falls back
// to per field, mirroring the length ranges the card actually uses.
var cardholderScavengeSignatures = []ber.TagSignature{
	{Tag: 0x5A, Bytes: []byte{0x5A}, MinLen: 4, MaxLen: 12},
	{Tag: 0x5F24, Bytes: []byte{0x5F, 0x24}, MinLen: 2, MaxLen: 3},
	{Tag: 0x5F20, Bytes: []byte{0x5F, 0x20}, MinLen: 2, MaxLen: 26},
	{Tag: 0x57, Bytes: []byte{0x57}, MinLen: 4, MaxLen: 19},
	{Tag: 0x5F30, Bytes: []byte{0x5F, 0x30}, MinLen: 2, MaxLen: 2},
}

// ExtractCardholderData runs the three-strategy recovery pipeline over a
// RecordMap's payloads, in the order spec §4.4 prescribes: concatenated
// strict TLV first, then per-record scavenging filling any gaps, then
// track-2 derivation filling the PAN/expiry pair only if still missing.
func ExtractCardholderData(records RecordMap) CardholderRecord {
	var rec CardholderRecord

	all := records.ConcatenatedPayloads()
	nodes, _ := ber.DecodeStrict(all)
	applyTagValue(&rec, 0x5A, ber.FindFirst(nodes, 0x5A))
	applyTagValue(&rec, 0x5F24, ber.FindFirst(nodes, 0x5F24))
	applyTagValue(&rec, 0x5F20, ber.FindFirst(nodes, 0x5F20))
	applyTagValue(&rec, 0x57, ber.FindFirst(nodes, 0x57))
	applyTagValue(&rec, 0x5F30, ber.FindFirst(nodes, 0x5F30))

	for _, sfi := range records.SortedSFIs() {
		for _, recNum := range records.SortedRecordNumbers(sfi) {
			payload := records[sfi][recNum]
			scavenged := ber.Scavenge(payload, cardholderScavengeSignatures)
			if rec.PAN == "" {
				applyTagValue(&rec, 0x5A, scavenged[0x5A])
			}
			if rec.ExpiryDate == "" {
				applyTagValue(&rec, 0x5F24, scavenged[0x5F24])
			}
			if rec.CardholderName == "" {
				applyTagValue(&rec, 0x5F20, scavenged[0x5F20])
			}
			if rec.Track2Equivalent == "" {
				applyTagValue(&rec, 0x57, scavenged[0x57])
			}
			if rec.ServiceCode == "" {
				applyTagValue(&rec, 0x5F30, scavenged[0x5F30])
			}
		}
	}

	deriveFromTrack2(&rec)

	return rec
}

func applyTagValue(rec *CardholderRecord, tag uint16, value []byte) {
	if value == nil {
		return
	}
	switch tag {
	case 0x5A:
		if rec.PAN == "" {
			if pan, ok := panFromBCD(value); ok {
				rec.PAN = pan
				rec.PANMasked = maskPAN(pan)
			}
		}
	case 0x5F24:
		if rec.ExpiryDate == "" {
			if expiry, ok := expiryFromBCD(value); ok {
				rec.ExpiryDate = expiry
			}
		}
	case 0x5F20:
		if rec.CardholderName == "" {
			if name, ok := sanitizeName(value); ok {
				rec.CardholderName = name
			}
		}
	case 0x57:
		if rec.Track2Equivalent == "" {
			rec.Track2Equivalent = strings.ToUpper(bcdDigits(value))
		}
	case 0x5F30:
		if rec.ServiceCode == "" {
			rec.ServiceCode = serviceCodeFromBCD(value)
		}
	}
}

// deriveFromTrack2 splits the track-2 equivalent hex digit string on the
// field separator nibble 'D': the part before is the PAN, the first four
// digits of the part after are YYMM expiry. Derived values only fill in
// when the corresponding primary tag (0x5A, 0x5F24) is missing.
func deriveFromTrack2(rec *CardholderRecord) {
	if rec.Track2Equivalent == "" {
		return
	}

	parts := strings.SplitN(rec.Track2Equivalent, "D", 2)
	if len(parts) != 2 {
		return
	}
	panPart, rest := parts[0], parts[1]

	if len(panPart) >= 8 && isAllDigits(panPart) {
		if rec.PAN == "" {
			rec.Track2PAN = panPart
			rec.Track2PANMasked = maskPAN(panPart)
		}
	}

	if len(rest) >= 4 {
		expiryPart := rest[:4]
		if isAllDigits(expiryPart) && rec.ExpiryDate == "" {
			rec.Track2Expiry = "20" + expiryPart[:2] + "-" + expiryPart[2:4]
		}
	}
}
