package emv

import (
	"encoding/hex"
	"sort"
	"strings"

	"github.com/go-emv/emvscan/pkg/ber"
	"github.com/go-emv/emvscan/pkg/iso7816"
)

// RecordMap maps SFI -> record number -> raw payload bytes, per spec §3.
// It is sparse: a missing entry means the card refused the record or
// signaled end-of-file.
type RecordMap map[byte]map[byte][]byte

// put records a successfully read payload.
func (m RecordMap) put(sfi, recNum byte, payload []byte) {
	if m[sfi] == nil {
		m[sfi] = make(map[byte][]byte)
	}
	m[sfi][recNum] = payload
}

// SortedSFIs returns the populated SFIs in ascending order.
func (m RecordMap) SortedSFIs() []byte {
	out := make([]byte, 0, len(m))
	for sfi := range m {
		out = append(out, sfi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SortedRecordNumbers returns the populated record numbers for sfi in
// ascending order.
func (m RecordMap) SortedRecordNumbers(sfi byte) []byte {
	recs := m[sfi]
	out := make([]byte, 0, len(recs))
	for n := range recs {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ConcatenatedPayloads joins every record payload, SFI then record-number
// order, into one byte slice for the concatenated-TLV cardholder-data
// strategy.
func (m RecordMap) ConcatenatedPayloads() []byte {
	var all []byte
	for _, sfi := range m.SortedSFIs() {
		for _, recNum := range m.SortedRecordNumbers(sfi) {
			all = append(all, m[sfi][recNum]...)
		}
	}
	return all
}

// FCIRecord is the EMV-specific File Control Information parsed from a
// SELECT response, per spec §3, enriched with a handful of proprietary/
// issuer-discretionary fields (PDOL, issuer country, issuer URL) that the
// reflected bertlv parse (ParseFCIDetail) recovers and the minimal
// byte-oriented pass does not bother with.
type FCIRecord struct {
	ApplicationID     []byte
	ApplicationLabel  string
	PreferredName     string
	Language          string
	AppVersion        string
	SFI               byte
	PDOL              string
	IssuerCountryCode string
	IssuerURL         string
}

// ParseFCI decodes a SELECT response body into an FCIRecord using the
// core BER decoder. It tolerates both a bare "A5" proprietary template and
// a fully-wrapped "6F" FCI template, since issuers disagree about which
// level SELECT responses are returned at. It then folds in ParseFCIDetail's
// reflected fields on a best-effort basis: a bertlv decode failure there
// never fails ParseFCI itself, it just leaves the enrichment fields unset.
func ParseFCI(data []byte) FCIRecord {
	nodes, _ := ber.DecodeStrict(data)

	rec := FCIRecord{
		ApplicationID: ber.FindFirst(nodes, 0x84),
	}

	if label := ber.FindFirst(nodes, 0x50); label != nil {
		rec.ApplicationLabel = asciiPrintable(label)
	}
	if name := ber.FindFirst(nodes, 0x9F12); name != nil {
		rec.PreferredName = asciiPrintable(name)
	}
	if lang := ber.FindFirst(nodes, 0x5F2D); lang != nil {
		rec.Language = asciiPrintable(lang)
	}
	if ver := ber.FindFirst(nodes, 0x9F6E); len(ver) >= 2 {
		rec.AppVersion = hexByte(ver[0]) + "." + hexByte(ver[1])
	}
	if sfi := ber.FindFirst(nodes, 0x88); len(sfi) == 1 {
		rec.SFI = sfi[0]
	}

	if detail, err := ParseFCIDetail(data); err == nil {
		prop := detail.ProprietaryTemplate
		if len(prop.PDOL) > 0 {
			rec.PDOL = strings.ToUpper(hex.EncodeToString(prop.PDOL))
		}
		if prop.IssuerDiscretionaryData != nil {
			disc := prop.IssuerDiscretionaryData
			if len(disc.IssuerCountryCodeAlpha2) > 0 {
				rec.IssuerCountryCode = asciiPrintable(disc.IssuerCountryCodeAlpha2)
			} else if len(disc.IssuerCountryCodeAlpha3) > 0 {
				rec.IssuerCountryCode = asciiPrintable(disc.IssuerCountryCodeAlpha3)
			}
			if len(disc.IssuerURL) > 0 {
				rec.IssuerURL = asciiPrintable(disc.IssuerURL)
			}
		}
	}

	return rec
}

func asciiPrintable(data []byte) string {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if b >= 0x20 && b <= 0x7E {
			out = append(out, b)
		}
	}
	return string(out)
}

func hexByte(b byte) string {
	const hexDigits = "0123456789ABCDEF"
	return string([]byte{hexDigits[b>>4], hexDigits[b&0x0F]})
}

// Driver runs the discovery state machine of spec §4.3 over a single
// iso7816.Client. It is the single canonical implementation parameterized
// by Config, replacing the four near-duplicate entry points the original
// source kept as separate scripts.
type Driver struct {
	Client *iso7816.Client
	Class  iso7816.Class
	Config Config
}

// NewDriver constructs a Driver over an already-connected client.
func NewDriver(client *iso7816.Client, cls iso7816.Class, cfg Config) *Driver {
	return &Driver{Client: client, Class: cls, Config: cfg}
}

// DiscoverDirectory tries each configured directory AID in order and
// returns the raw SELECT response body of the first one that succeeds.
// Returns a *DirectoryUnavailable error, and nil data, if none do.
func (d *Driver) DiscoverDirectory() ([]byte, error) {
	var tried []string
	for _, name := range d.Config.Directories {
		cmd := iso7816.SelectByAID(d.Class, name)
		trace, err := d.Client.Send(cmd)
		if err != nil {
			return nil, err
		}
		tried = append(tried, string(name))
		if trace.IsSuccess() {
			return trace.Last().Response.Data, nil
		}
	}
	return nil, &DirectoryUnavailable{Tried: tried}
}

// SelectApplication issues SELECT by AID and returns the response body on
// success.
func (d *Driver) SelectApplication(aid []byte) ([]byte, bool, error) {
	cmd := iso7816.SelectByAID(d.Class, aid)
	trace, err := d.Client.Send(cmd)
	if err != nil {
		return nil, false, err
	}
	if !trace.IsSuccess() {
		return nil, false, nil
	}
	return trace.Last().Response.Data, true, nil
}

// selectFirstWorking tries every candidate AID in order, returning the
// first that selects successfully.
func (d *Driver) selectFirstWorking(candidates [][]byte) (aid []byte, body []byte, attempts int, err error) {
	for _, candidate := range candidates {
		attempts++
		body, ok, err := d.SelectApplication(candidate)
		if err != nil {
			return nil, nil, attempts, err
		}
		if ok {
			return candidate, body, attempts, nil
		}
	}
	return nil, nil, attempts, nil
}

// ReadRecords sweeps every SFI in the configured range, reading record
// numbers 1, 2, ... until an end-of-file status (6A82/6A83), an
// access-denied status (6985), or MaxConsecutiveFailures consecutive
// non-success responses is observed. SFIs are independent: a terminated
// sweep on one does not affect the others.
func (d *Driver) ReadRecords() (RecordMap, error) {
	records := make(RecordMap)
	maxFailures := d.Config.maxConsecutiveFailures()

	for _, sfi := range d.Config.sfiRange() {
		consecutiveFailures := 0
		for recNum := byte(1); recNum < 255; recNum++ {
			cmd := iso7816.ReadRecord(d.Class, sfi, recNum)
			trace, err := d.Client.Send(cmd)
			if err != nil {
				return records, err
			}

			status := trace.Last().Response.Status
			sw1 := status.SW1()

			if status == iso7816.SW_NO_ERROR || sw1 == 0x61 {
				records.put(sfi, recNum, trace.Last().Response.Data)
				consecutiveFailures = 0
				continue
			}

			endOfFile := status == iso7816.SW_ERR_FILE_NOT_FOUND || status == iso7816.SW_ERR_RECORD_NOT_FOUND
			accessDenied := status == iso7816.SW_ERR_COND_OF_USE_NOT_SAT
			if endOfFile || accessDenied {
				break
			}

			consecutiveFailures++
			if consecutiveFailures >= maxFailures {
				break
			}
		}
	}

	return records, nil
}

// Run executes the full state machine of spec §4.3 and returns a
// populated Session. It is the main entry point used by the CLI.
func (d *Driver) Run() (*Session, error) {
	session := NewSession()
	defer func() { session.APDULog = d.Client.Log }()

	directoryBody, dirErr := d.DiscoverDirectory()

	var candidateAIDs [][]byte
	if dirErr == nil {
		candidateAIDs = EnumerateAIDs(directoryBody)
	}

	var selectedAID, appBody []byte
	var attempts int

	if len(candidateAIDs) > 0 {
		aid, body, n, err := d.selectFirstWorking(candidateAIDs)
		if err != nil {
			return session, err
		}
		attempts += n
		if aid != nil {
			selectedAID, appBody = aid, body
		}
	}

	if selectedAID == nil {
		fallback, body, n, err := d.selectFirstWorking(d.Config.fallbackAIDs())
		if err != nil {
			return session, err
		}
		attempts += n
		selectedAID, appBody = fallback, body
	}

	if selectedAID == nil {
		return session, &NoApplicationSelectable{Attempts: attempts}
	}

	session.SelectedAID = selectedAID
	session.FCI = ParseFCI(appBody)
	session.RawFCI = appBody

	records, err := d.ReadRecords()
	if err != nil {
		return session, err
	}
	session.Records = records

	if len(records) == 0 {
		return session, &NoRecordsReadable{SFIRange: d.Config.sfiRange()}
	}

	session.Cardholder = ExtractCardholderData(records)

	return session, nil
}
