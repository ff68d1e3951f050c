package emv

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/go-emv/emvscan/pkg/tlv"
)

func TestParseFCI(t *testing.T) {
	tests := []struct {
		name      string
		rawData   []byte
		wantLabel string
		wantDF    string
		wantErr   bool
	}{
		{
			name: "Standard EMV FCI",
			rawData: tlv.Hex(
				"6F 1A",                      // FCI Template
				"84 07 A0000000041010",       // DF Name
				"A5 0F",                      // Proprietary Template
				"50 0A 4D617374657243617264", // Label "MasterCard"
				"87 01 01",                   // Priority 1
			),
			wantLabel: "MasterCard",
			wantDF:    "A0000000041010",
		},
		{
			name: "FCI without 6F wrapper (Direct TLV)",
			rawData: tlv.Hex(
				"84 0E 325041592E5359532E4444463031", // DF Name (2PAY.SYS.DDF01)
				"A5 08",
				"88 01 02",     // SFI 2
				"5F2D 02 656E", // Language "en"
			),
			wantDF: "325041592E5359532E4444463031",
		},
		{
			name:    "Empty Data",
			rawData: []byte{},
			wantErr: true,
		},
		{
			name:    "Invalid TLV",
			rawData: []byte{0x6F, 0x05, 0x84}, // Incomplete
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFCIDetail(tt.rawData)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFCIDetail() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			if got == nil {
				t.Fatal("Expected result, got nil")
			}

			if tt.wantDF != "" {
				df := strings.ToUpper(hex.EncodeToString(got.DFName))
				if df != tt.wantDF {
					t.Errorf("DFName mismatch. Got %s, want %s", df, tt.wantDF)
				}
			}

			if tt.wantLabel != "" {
				lbl := string(got.ProprietaryTemplate.ApplicationLabel)
				if lbl != tt.wantLabel {
					t.Errorf("Label mismatch. Got %s, want %s", lbl, tt.wantLabel)
				}
			}
		})
	}
}

func TestParseFCI_EnrichesFromProprietaryAndDiscretionaryData(t *testing.T) {
	rawData := tlv.Hex(
		"6F 30",                                // FCI Template
		"84 07 A0000000031010",                 // DF Name (VISA)
		"A5 25",                                // Proprietary Template
		"50 04 56495341",                       // App Label: "VISA"
		"BF0C 16",                              // Issuer Discretionary Data
		"5F50 0E 7777772E6D795F62616E6B2E6575", // URL: "www.my_bank.eu"
		"5F55 02 5553",                          // Issuer country alpha-2: "US"
		"9F38 03 9F1A02",                        // PDOL
	)

	rec := ParseFCI(rawData)

	if rec.ApplicationLabel != "VISA" {
		t.Errorf("ApplicationLabel = %q, want VISA", rec.ApplicationLabel)
	}
	if rec.PDOL != "9F1A02" {
		t.Errorf("PDOL = %q, want 9F1A02", rec.PDOL)
	}
	if rec.IssuerCountryCode != "US" {
		t.Errorf("IssuerCountryCode = %q, want US", rec.IssuerCountryCode)
	}
	if rec.IssuerURL != "www.my_bank.eu" {
		t.Errorf("IssuerURL = %q, want www.my_bank.eu", rec.IssuerURL)
	}
}
