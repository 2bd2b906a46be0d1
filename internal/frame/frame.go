// Package frame implements the length-implicit wire framing used on
// the coordinator↔worker FIFO pairs. The crawler↔indexer bridge pipes
// do not use it; they carry plain newline-terminated text.
//
// A transmission is one or more NUL (0x00) terminated records, with the
// whole transmission terminated by a single ETX (0x03) byte. The codec
// is generalized to any io.Writer/io.Reader so the same code serves
// FIFOs, os.Pipe() pairs, and (in tests) net.Pipe or bytes.Buffer.
package frame

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const (
	// NUL separates records within one transmission.
	NUL byte = 0x00
	// ETX terminates a transmission.
	ETX byte = 0x03
	// SearchSep separates the path/line/text fields of a SEARCH record.
	SearchSep byte = 0x04
)

// ErrPeerClosed is returned by Recv when the reader hit EOF mid-stream,
// distinguished from a generic I/O error so callers (the coordinator)
// can treat "worker died" differently from "I/O error".
var ErrPeerClosed = errors.New("frame: peer closed connection")

// Writer sends framed transmissions to an underlying io.Writer.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w for framed sends.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Send writes one record. When final is true, the transmission is
// terminated with ETX; otherwise the record is terminated with NUL so
// a subsequent Send call continues the same transmission. A nil/empty
// record with final=true legally encodes an empty result.
func (s *Writer) Send(record []byte, final bool) error {
	if len(record) == 0 && final {
		_, err := s.w.Write([]byte{ETX})
		return err
	}

	buf := make([]byte, 0, len(record)+1)
	buf = append(buf, record...)
	if final {
		buf = append(buf, ETX)
	} else {
		buf = append(buf, NUL)
	}
	_, err := s.w.Write(buf)
	return err
}

// SendString is a convenience wrapper over Send for text records.
func (s *Writer) SendString(record string, final bool) error {
	return s.Send([]byte(record), final)
}

// SendAll writes records as a single transmission, one record per call
// to Send, with the last record marked final. An empty records slice
// sends a zero-length final payload (an empty result).
func (s *Writer) SendAll(records []string) error {
	if len(records) == 0 {
		return s.Send(nil, true)
	}
	for i, r := range records {
		if err := s.SendString(r, i == len(records)-1); err != nil {
			return err
		}
	}
	return nil
}

// Reader receives framed transmissions from an underlying io.Reader.
type Reader struct {
	r     io.Reader
	chunk []byte
}

// NewReader wraps r for framed receives.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, chunk: make([]byte, 256)}
}

// Recv reads one full transmission and splits it into its constituent
// NUL-delimited records. It returns ErrPeerClosed if the underlying
// reader hit EOF before a transmission-terminating ETX arrived, or any
// other I/O error verbatim.
func (s *Reader) Recv() ([]string, error) {
	buf := make([]byte, 0, 256)

	for {
		n, err := s.r.Read(s.chunk)
		if n > 0 {
			buf = append(buf, s.chunk[:n]...)
			if buf[len(buf)-1] == ETX {
				// Replace the trailing ETX with NUL so the split below
				// treats the final record the same as every other one.
				buf[len(buf)-1] = NUL
				return splitRecords(buf), nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrPeerClosed
			}
			return nil, fmt.Errorf("frame: reading transmission: %w", err)
		}
	}
}

// splitRecords splits a NUL-terminated byte stream into its records,
// dropping the single trailing empty record the terminator produces. A
// stream that was nothing but the terminator yields zero records (the
// "empty result" case).
func splitRecords(buf []byte) []string {
	var records []string
	start := 0
	for i, b := range buf {
		if b == NUL {
			records = append(records, string(buf[start:i]))
			start = i + 1
		}
	}
	if n := len(records); n > 0 && records[n-1] == "" {
		records = records[:n-1]
	}
	return records
}
