/*
Package ber implements a tolerant BER-TLV (Basic Encoding Rules, Tag-Length-Value)
decoder for EMV card responses.

Card responses are not always well-formed: issuers truncate records, some
terminals return data outside of any template, and length fields use BER
long-form encoding that can run past the end of the slice. This package
favors a decoder that degrades gracefully over one that panics or returns
nothing:

  - DecodeStrict walks the BER grammar and recurses only into a fixed set of
    known EMV constructed templates (record template 0x70, response message
    template 0x77, FCI proprietary template 0xA5, FCI template 0x6F,
    directory entry 0x61, FCI issuer discretionary data 0xBF0C). Any other
    constructed tag is kept as raw payload. On the first structural
    inconsistency it stops and returns the nodes decoded so far, plus a
    Diagnostic describing why.
  - Scavenge is the fallback: a linear byte-pattern scan used when strict
    decoding finds nothing useful, because some cards place cardholder data
    outside any template altogether.
*/
package ber

// maxDepth bounds recursion into nested constructed templates. EMV data
// never nests this deep; it exists purely to stop runaway recursion on
// adversarial input.
const maxDepth = 16

// Node is a decoded BER-TLV element. Tag carries the raw identifier byte(s)
// exactly as they appeared on the wire (including the class/constructed
// bits), so a single-byte tag and a two-byte tag never collide.
type Node struct {
	Tag         uint16
	Constructed bool
	Value       []byte
	Children    []Node
}

// Diagnostic summarizes a DecodeStrict run: how many bytes were consumed,
// how many remain, and why decoding stopped (empty string means it reached
// the end of input cleanly).
type Diagnostic struct {
	Consumed   int
	Remaining  int
	StopReason string
}

// knownConstructed is the fixed set of constructed tags DecodeStrict
// recurses into. Every other constructed tag is retained as raw payload;
// interpreting it is left to the caller.
var knownConstructed = map[uint16]bool{
	0x70:   true, // EMV record template
	0x77:   true, // response message template
	0xA5:   true, // FCI proprietary template
	0x6F:   true, // FCI template
	0x61:   true, // directory entry
	0xBF0C: true, // FCI issuer discretionary data
}

// IsKnownConstructed reports whether tag is recursed into automatically by
// DecodeStrict.
func IsKnownConstructed(tag uint16) bool {
	return knownConstructed[tag]
}
