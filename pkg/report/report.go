// Package report emits the on-disk session artifact and the terminal
// summary view. It stays a thin consumer of emv.Session rather than
// folded into the core discovery package.
package report

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-emv/emvscan/pkg/emv"
)

// jsonSummary is the session artifact shape: ISO-8601 timestamp,
// colon-free hex AID, FCI fields, masked/unmasked PAN gating, technical
// counters.
type jsonSummary struct {
	Timestamp   string          `json:"timestamp"`
	AID         string          `json:"aid"`
	Application jsonApplication `json:"application"`
	Cardholder  jsonCardholder  `json:"cardholder"`
	Counters    jsonCounters    `json:"counters"`
}

type jsonApplication struct {
	Label             string `json:"label,omitempty"`
	PreferredName     string `json:"preferred_name,omitempty"`
	Language          string `json:"language,omitempty"`
	Version           string `json:"version,omitempty"`
	PDOL              string `json:"pdol,omitempty"`
	IssuerCountryCode string `json:"issuer_country_code,omitempty"`
	IssuerURL         string `json:"issuer_url,omitempty"`
}

type jsonCardholder struct {
	PANMasked      string `json:"pan_masked,omitempty"`
	PAN            string `json:"pan,omitempty"`
	ExpiryDate     string `json:"expiry_date,omitempty"`
	CardholderName string `json:"cardholder_name,omitempty"`
	ServiceCode    string `json:"service_code,omitempty"`
	Track2PAN      string `json:"track2_pan,omitempty"`
	Track2Expiry   string `json:"track2_expiry,omitempty"`
}

type jsonCounters struct {
	SFICount    int `json:"sfi_count"`
	RecordCount int `json:"record_count"`
	APDUCount   int `json:"apdu_count"`
}

// WriteJSON serializes session as the JSON summary to path. unmask gates
// whether the full PAN is included; the masked form is always present.
func WriteJSON(session *emv.Session, path string, unmask bool) error {
	summary := jsonSummary{
		Timestamp: session.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		AID:       strings.ToUpper(hex.EncodeToString(session.SelectedAID)),
		Application: jsonApplication{
			Label:             session.FCI.ApplicationLabel,
			PreferredName:     session.FCI.PreferredName,
			Language:          session.FCI.Language,
			Version:           session.FCI.AppVersion,
			PDOL:              session.FCI.PDOL,
			IssuerCountryCode: session.FCI.IssuerCountryCode,
			IssuerURL:         session.FCI.IssuerURL,
		},
		Cardholder: jsonCardholder{
			PANMasked:      session.Cardholder.PANMasked,
			ExpiryDate:     session.Cardholder.ExpiryDate,
			CardholderName: session.Cardholder.CardholderName,
			ServiceCode:    session.Cardholder.ServiceCode,
			Track2PAN:      session.Cardholder.Track2PANMasked,
			Track2Expiry:   session.Cardholder.Track2Expiry,
		},
		Counters: jsonCounters{
			SFICount:    len(session.Records),
			RecordCount: countRecords(session.Records),
			APDUCount:   len(session.APDULog),
		},
	}

	if unmask {
		summary.Cardholder.PAN = session.Cardholder.PAN
		if session.Cardholder.Track2PAN != "" {
			summary.Cardholder.Track2PAN = session.Cardholder.Track2PAN
		}
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session summary: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteRawTLV hex-dumps the concatenated record payloads to path.
func WriteRawTLV(session *emv.Session, path string) error {
	raw := session.Records.ConcatenatedPayloads()
	content := strings.ToUpper(hex.EncodeToString(raw)) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteTrace writes the APDU log to path, one line per direction in
// spec §6's literal trace format.
func WriteTrace(session *emv.Session, path string) error {
	lines := session.APDULog.Lines()
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func countRecords(records emv.RecordMap) int {
	total := 0
	for _, recs := range records {
		total += len(recs)
	}
	return total
}
