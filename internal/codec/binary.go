package codec

import (
	"encoding/binary"
	"fmt"
)

// CountRecordSize is the size of an encoded count record: uint64 seconds + uint32 count.
const CountRecordSize = 12

// EncodeCount packs a timestamp (seconds since epoch) and a count in native byte order
// with no padding.
func EncodeCount(ts uint64, count uint32) []byte {
	buf := make([]byte, CountRecordSize)
	binary.NativeEndian.PutUint64(buf[0:8], ts)
	binary.NativeEndian.PutUint32(buf[8:12], count)
	return buf
}

// DecodeCount unpacks a record produced by EncodeCount.
func DecodeCount(body []byte) (uint64, uint32, error) {
	if len(body) != CountRecordSize {
		return 0, 0, fmt.Errorf("%w: count record is %d bytes, want %d", ErrMalformedMessage, len(body), CountRecordSize)
	}
	return binary.NativeEndian.Uint64(body[0:8]), binary.NativeEndian.Uint32(body[8:12]), nil
}
