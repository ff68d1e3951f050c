package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/go-emv/emvscan/pkg/emv"
)

var (
	colorHeader = text.Colors{text.FgCyan, text.Bold}
	colorLabel  = text.Colors{text.FgYellow}
	colorValue  = text.Colors{text.FgWhite}
	colorWarn   = text.Colors{text.FgYellow}
)

func getTableStyle() table.Style {
	style := table.StyleRounded
	style.Color.Header = colorHeader
	style.Color.Row = colorValue
	style.Color.RowAlternate = colorValue
	style.Options.SeparateRows = false
	return style
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(getTableStyle())
	return t
}

// PrintTable renders a terminal summary of session: application metadata,
// cardholder fields (masked PAN only), and SFI/record counters.
func PrintTable(session *emv.Session) {
	fmt.Println()
	t := newTable()
	t.SetTitle("EMV APPLICATION")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 18},
		{Number: 2, Colors: colorValue, WidthMin: 40},
	})
	t.AppendRow(table.Row{"AID", fmt.Sprintf("%X", session.SelectedAID)})
	if session.FCI.ApplicationLabel != "" {
		t.AppendRow(table.Row{"Label", session.FCI.ApplicationLabel})
	}
	if session.FCI.PreferredName != "" {
		t.AppendRow(table.Row{"Preferred Name", session.FCI.PreferredName})
	}
	if session.FCI.Language != "" {
		t.AppendRow(table.Row{"Language", session.FCI.Language})
	}
	if session.FCI.AppVersion != "" {
		t.AppendRow(table.Row{"App Version", session.FCI.AppVersion})
	}
	if session.FCI.IssuerCountryCode != "" {
		t.AppendRow(table.Row{"Issuer Country", session.FCI.IssuerCountryCode})
	}
	if session.FCI.IssuerURL != "" {
		t.AppendRow(table.Row{"Issuer URL", session.FCI.IssuerURL})
	}
	if session.FCI.PDOL != "" {
		t.AppendRow(table.Row{"PDOL", session.FCI.PDOL})
	}
	t.Render()

	fmt.Println()
	t2 := newTable()
	t2.SetTitle("CARDHOLDER DATA")
	t2.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 18},
		{Number: 2, Colors: colorValue, WidthMin: 40},
	})
	appendIfSet(t2, "PAN (masked)", session.Cardholder.PANMasked)
	appendIfSet(t2, "Expiry", session.Cardholder.ExpiryDate)
	appendIfSet(t2, "Cardholder Name", session.Cardholder.CardholderName)
	appendIfSet(t2, "Service Code", session.Cardholder.ServiceCode)
	appendIfSet(t2, "Track2 PAN (masked)", session.Cardholder.Track2PANMasked)
	appendIfSet(t2, "Track2 Expiry", session.Cardholder.Track2Expiry)
	if session.Cardholder.PANMasked == "" && session.Cardholder.Track2PANMasked == "" {
		t2.AppendRow(table.Row{"Status", colorWarn.Sprint("no cardholder fields recovered")})
	}
	t2.Render()

	fmt.Println()
	t3 := newTable()
	t3.SetTitle("DISCOVERY COUNTERS")
	t3.AppendHeader(table.Row{"SFIs Populated", "Records Read", "APDU Exchanges"})
	t3.AppendRow(table.Row{len(session.Records), countRecords(session.Records), len(session.APDULog) / 2})
	t3.Render()
}

func appendIfSet(t table.Writer, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	t.AppendRow(table.Row{label, value})
}
