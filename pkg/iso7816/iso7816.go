/*
Package iso7816 implements data structures and logic to interact with smart cards according to the ISO/IEC 7816 standard.

This package provides the fundamental building blocks for APDU (Application Protocol Data Unit) communication, including Command and Response structures, Status Word (SW) analysis, and the SELECT/READ RECORD command builders.

# Fundamentals

The communication with a smart card is strictly synchronous:
 1. The Host sends a Command APDU (Header + Optional Body).
 2. The Card processes it and returns a Response APDU (Optional Body + Trailer SW1/SW2).

# Status Words

Every response ends with a 2-byte Status Word (SW).
  - 0x9000: Success (OK).
  - 0x61XX: Success, but response data is still available (XX bytes).
  - 0x6CXX: Error, wrong length expectation (XX is the correct length).
  - Other: Various error conditions.

# Client

Client wraps a Transmitter and applies the 61XX/6CXX chaining rules
automatically, returning a Trace of every physical transaction involved in
a single logical command:

	client := iso7816.NewClient(card)
	trace, err := client.Send(iso7816.SelectByAID(cla, aid))
	if err != nil {
	    log.Fatal(err)
	}
	if trace.IsSuccess() {
	    fmt.Printf("FCI: %X\n", trace.Last().Response.Data)
	}
*/
package iso7816
