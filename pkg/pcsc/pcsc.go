// Package pcsc adapts github.com/ebfe/scard to the iso7816.Transmitter
// interface, the only contact the discovery driver has with physical
// hardware.
package pcsc

import (
	"fmt"

	"github.com/ebfe/scard"
	"github.com/go-emv/emvscan/pkg/emv"
	"github.com/go-emv/emvscan/pkg/iso7816"
)

// ReaderInitHook lets a caller run a vendor-specific APDU sequence right
// after connect (buzzer off, antenna power, polling configuration) before
// discovery begins. The default hook is a no-op; concrete vendor sequences
// stay out of this package's scope.
type ReaderInitHook func(client *iso7816.Client) error

// NoopReaderInit performs no initialization.
func NoopReaderInit(*iso7816.Client) error { return nil }

// Connection wraps an established PC/SC context and card connection and
// satisfies iso7816.Transmitter.
type Connection struct {
	ctx  *scard.Context
	card *scard.Card

	// ReaderName is the PC/SC reader identity captured once at connect
	// time; output formatters read it from the model rather than
	// re-querying the reader list later.
	ReaderName string
}

// Transmit sends raw APDU bytes to the card and returns the raw response,
// satisfying iso7816.Transmitter.
func (c *Connection) Transmit(cmd []byte) ([]byte, error) {
	return c.card.Transmit(cmd)
}

// Release disconnects the card (leaving it powered, per PC/SC convention)
// and releases the PC/SC context. Safe to call once, on both the success
// and failure paths.
func (c *Connection) Release() error {
	var firstErr error
	if c.card != nil {
		if err := c.card.Disconnect(scard.LeaveCard); err != nil {
			firstErr = fmt.Errorf("card disconnect: %w", err)
		}
	}
	if c.ctx != nil {
		if err := c.ctx.Release(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("context release: %w", err)
		}
	}
	return firstErr
}

// Connect establishes a PC/SC context, picks the first available reader,
// and connects sharing the T=0/T=1 protocol. Callers must call Release
// once done, typically via defer immediately after a successful Connect.
func Connect() (*Connection, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish PC/SC context: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		_ = ctx.Release()
		detail := "reader enumeration failed"
		if err == nil {
			detail = "no readers attached"
		}
		return nil, &emv.NoReader{Detail: detail}
	}

	card, err := ctx.Connect(readers[0], scard.ShareShared, scard.ProtocolT0|scard.ProtocolT1)
	if err != nil {
		_ = ctx.Release()
		return nil, &emv.CardAbsent{Detail: err.Error()}
	}

	return &Connection{ctx: ctx, card: card, ReaderName: readers[0]}, nil
}

// EstablishReader connects to the reader, builds an iso7816.Client over
// it, runs hook (NoopReaderInit if nil), and returns both so the caller
// retains Release control. On hook failure the connection is released
// before returning.
func EstablishReader(hook ReaderInitHook) (*Connection, *iso7816.Client, error) {
	conn, err := Connect()
	if err != nil {
		return nil, nil, err
	}

	client := iso7816.NewClient(conn)

	if hook == nil {
		hook = NoopReaderInit
	}
	if err := hook(client); err != nil {
		_ = conn.Release()
		return nil, nil, fmt.Errorf("reader init hook: %w", err)
	}

	return conn, client, nil
}
