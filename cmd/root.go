// Package cmd wires the emv discovery driver to a cobra-based CLI, with
// flags for transport mode, output location, and PAN visibility.
package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/go-emv/emvscan/pkg/emv"
	"github.com/go-emv/emvscan/pkg/iso7816"
	"github.com/go-emv/emvscan/pkg/pcsc"
	"github.com/go-emv/emvscan/pkg/report"
)

var version = "1.0.0"

var (
	contactless bool
	outputDir   string
	unmaskPAN   bool
	noTable     bool
)

var rootCmd = &cobra.Command{
	Use:   "emvscan",
	Short: "EMV payment card discovery and cardholder-data recovery",
	Long: `emvscan connects to the first available PC/SC reader, discovers the
card's payment application through the PPSE/PSE directory (falling back to a
known AID list when no directory is selectable), reads its records, and
recovers cardholder-visible fields: masked PAN, expiry date, cardholder name.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runScan,
}

func init() {
	rootCmd.Flags().BoolVar(&contactless, "contactless", true,
		"try the contactless directory (2PAY.SYS.DDF01) before the contact one (1PAY.SYS.DDF01)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", ".",
		"directory to write session.json, raw.hex, and trace.log into")
	rootCmd.Flags().BoolVar(&unmaskPAN, "unmask-pan", false,
		"include the full unmasked PAN in the JSON summary")
	rootCmd.Flags().BoolVar(&noTable, "no-table", false,
		"skip the terminal summary table")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Println(">> Connecting to reader...")
	conn, client, err := pcsc.EstablishReader(nil)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if err := conn.Release(); err != nil {
			log.Printf("Warning: failed to release reader: %v", err)
		}
	}()
	fmt.Printf(">> Using reader: %s\n", conn.ReaderName)

	cls, err := iso7816.NewClass(0x00)
	if err != nil {
		return fmt.Errorf("build CLA: %w", err)
	}

	cfg := emv.DefaultConfig()
	if !contactless {
		cfg.Directories = [][]byte{emv.PSEName, emv.PPSEName}
	}
	driver := emv.NewDriver(client, cls, cfg)

	fmt.Println("\n=============================================")
	fmt.Println(" Discovering application and cardholder data")
	fmt.Println("=============================================")

	session, err := driver.Run()
	if err != nil {
		if !partial(err) {
			return fmt.Errorf("discovery: %w", err)
		}
		log.Printf("Warning: %v", err)
	}

	fmt.Printf("\n>> Selected application AID: %X\n", session.SelectedAID)
	fmt.Printf(">> Records recovered across %d SFI(s)\n", len(session.Records))

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := report.WriteJSON(session, filepath.Join(outputDir, "session.json"), unmaskPAN); err != nil {
		return fmt.Errorf("write session.json: %w", err)
	}
	if err := report.WriteRawTLV(session, filepath.Join(outputDir, "raw.hex")); err != nil {
		return fmt.Errorf("write raw.hex: %w", err)
	}
	if err := report.WriteTrace(session, filepath.Join(outputDir, "trace.log")); err != nil {
		return fmt.Errorf("write trace.log: %w", err)
	}

	if !noTable {
		report.PrintTable(session)
	}

	fmt.Println("\n>> Discovery finished")
	return nil
}

// partial reports whether err leaves session partially populated and worth
// reporting anyway, per spec §7's propagation rule: "the session is returned
// partially populated if only some fields could be recovered."
func partial(err error) bool {
	switch err.(type) {
	case *emv.NoApplicationSelectable, *emv.NoRecordsReadable:
		return true
	default:
		return false
	}
}
