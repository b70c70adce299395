package ek60

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"
)

// Datagram framing: a little-endian int32 byte length, the datagram itself,
// then the same length repeated. The datagram starts with a 4-character type
// and a FILETIME timestamp.
const headerLen = 12

// filetimeEpochDelta is the count of 100ns ticks between the FILETIME epoch
// (1601-01-01) and the Unix epoch.
const filetimeEpochDelta = 116444736000000000

type datagram struct {
	kind string
	ts   time.Time
	body []byte
}

// readDatagram reads one framed datagram. A clean io.EOF at a frame boundary
// is passed through; anything else truncated is an error.
func readDatagram(r io.Reader) (*datagram, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("truncated datagram length")
		}
		return nil, err
	}
	n := int32(binary.LittleEndian.Uint32(lenBuf[:]))
	if n < headerLen {
		return nil, fmt.Errorf("datagram length %d below header size", n)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("truncated datagram body: %w", err)
	}
	var trail [4]byte
	if _, err := io.ReadFull(r, trail[:]); err != nil {
		return nil, fmt.Errorf("missing trailing length: %w", err)
	}
	if int32(binary.LittleEndian.Uint32(trail[:])) != n {
		return nil, fmt.Errorf("length framing mismatch")
	}

	low := binary.LittleEndian.Uint32(buf[4:8])
	high := binary.LittleEndian.Uint32(buf[8:12])
	ticks := int64(high)<<32 | int64(low)

	return &datagram{
		kind: string(buf[:4]),
		ts:   time.Unix(0, (ticks-filetimeEpochDelta)*100).UTC(),
		body: buf[headerLen:],
	}, nil
}

func f32(b []byte, off int) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b[off:])))
}

func i32(b []byte, off int) int32 {
	return int32(binary.LittleEndian.Uint32(b[off:]))
}

func i16(b []byte, off int) int16 {
	return int16(binary.LittleEndian.Uint16(b[off:]))
}

// cstr extracts a NUL-padded fixed-width string field.
func cstr(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
