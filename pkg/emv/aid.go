package emv

import (
	"github.com/go-emv/emvscan/pkg/ber"
)

// EnumerateAIDs decodes a directory response (PPSE/PSE SELECT response or a
// directory-record READ RECORD payload) and collects every primitive 0x4F
// tag encountered at any depth, deduplicated while preserving first-seen
// order. When strict decoding surfaces nothing, it falls back to
// ber.Scavenge for a byte-pattern 0x4F, matching the original
// implementation's extract_aids_from_ppse brute-force path generalized
// beyond just the PPSE response.
func EnumerateAIDs(data []byte) [][]byte {
	nodes, _ := ber.DecodeStrict(data)
	found := ber.FindAll(nodes, 0x4F)

	if len(found) == 0 {
		sigs := []ber.TagSignature{
			{Tag: 0x4F, Bytes: []byte{0x4F}, MinLen: 5, MaxLen: 16},
		}
		scavenged := ber.Scavenge(data, sigs)
		if aid, ok := scavenged[0x4F]; ok {
			found = append(found, aid)
		}
	}

	seen := make(map[string]bool, len(found))
	var out [][]byte
	for _, aid := range found {
		key := string(aid)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, aid)
	}
	return out
}
