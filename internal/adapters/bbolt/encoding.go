// Binary encoding for location records.
//
// Record value format v1 (little-endian, 17 bytes):
//
//	startLine:   uint32
//	startColumn: uint32
//	endLine:     uint32
//	endColumn:   uint32
//	flags:       uint8   bit0 = scope
//
// The location ID is not part of the value; it is the big-endian bucket key.
package bbolt

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/corey/idebridge/internal/ports"
)

// schemaVersion is stored under meta/schema.
const schemaVersion uint32 = 1

// recordSize is the byte size of a single encoded record.
const recordSize = 17

const flagScope = 1 << 0

// encodeRecord encodes the position fields of r. Negative or oversized
// positions are rejected rather than wrapped.
func encodeRecord(r ports.LocationRecord) ([]byte, error) {
	fields := [4]int{r.StartLine, r.StartColumn, r.EndLine, r.EndColumn}
	buf := make([]byte, recordSize)
	for i, f := range fields {
		if f < 0 || uint64(f) > math.MaxUint32 {
			return nil, fmt.Errorf("position out of range: %d", f)
		}
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(f))
	}
	if r.Scope {
		buf[16] = flagScope
	}
	return buf, nil
}

// decodeRecord decodes a record value. Every read is bounds-checked to avoid
// panics on corrupt data.
func decodeRecord(data []byte) (ports.LocationRecord, error) {
	if len(data) != recordSize {
		return ports.LocationRecord{}, fmt.Errorf("record size %d, want %d", len(data), recordSize)
	}
	return ports.LocationRecord{
		StartLine:   int(binary.LittleEndian.Uint32(data[0:])),
		StartColumn: int(binary.LittleEndian.Uint32(data[4:])),
		EndLine:     int(binary.LittleEndian.Uint32(data[8:])),
		EndColumn:   int(binary.LittleEndian.Uint32(data[12:])),
		Scope:       data[16]&flagScope != 0,
	}, nil
}
