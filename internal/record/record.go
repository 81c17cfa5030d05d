// Package record implements the on-disk codecs used by a Bitcask data
// file and its hint file sidecar.
//
// A log record is a fixed 16-byte header followed by the raw key and value
// bytes:
//
//	offset  size  field
//	  0      4    crc32       (little-endian; checksum over bytes 4..end)
//	  4      4    timestamp   (little-endian; seconds since epoch)
//	  8      4    key_size    (little-endian)
//	 12      4    value_size  (little-endian; 0 is legal, used for tombstones)
//	 16      K    key
//	 16+K    V    value
//
// A hint record has no CRC of its own; it exists only to speed up
// recovery of the data file it is paired with:
//
//	offset  size  field
//	  0      4    timestamp     (little-endian)
//	  4      4    key_size      (little-endian)
//	  8      4    value_size    (little-endian)
//	 12      8    value_offset  (little-endian; byte offset of value in data file)
//	 20      K    key
package record

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// HeaderSize is the fixed size, in bytes, of a log record header.
const HeaderSize = 16

// HintHeaderSize is the fixed size, in bytes, of a hint record header.
const HintHeaderSize = 20

// ErrCorruptRecord is returned by DecodeHeader and DecodeHintHeader when
// given fewer bytes than a full header. A CRC mismatch is reported by
// Verify returning false, not by this error.
var ErrCorruptRecord = errors.New("bitcask: corrupt record")

// Header is the decoded fixed-size portion of a log record.
type Header struct {
	CRC       uint32
	Timestamp uint32
	KeySize   uint32
	ValueSize uint32
}

// Encode assembles a full record: header with a placeholder CRC, followed
// by key and value, then the CRC (computed over everything after the CRC
// field) is written back into the first four bytes.
func Encode(timestamp uint32, key, value []byte) []byte {
	buf := make([]byte, HeaderSize+len(key)+len(value))

	binary.LittleEndian.PutUint32(buf[4:8], timestamp)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(key)))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(value)))
	copy(buf[HeaderSize:], key)
	copy(buf[HeaderSize+len(key):], value)

	binary.LittleEndian.PutUint32(buf[0:4], Checksum(buf[4:]))

	return buf
}

// Checksum computes the CRC-32/ISO-HDLC checksum (reflected polynomial
// 0xEDB88320, initial 0xFFFFFFFF, final XOR 0xFFFFFFFF) over a byte slice
// that does not include the CRC field itself. hash/crc32's IEEE table is
// exactly this algorithm, so no third-party implementation is needed.
func Checksum(bytesWithoutCRC []byte) uint32 {
	return crc32.ChecksumIEEE(bytesWithoutCRC)
}

// DecodeHeader parses a fixed-size log record header. It does not
// validate the CRC; callers verify it once the key and value bytes have
// also been read, via Verify.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrCorruptRecord
	}

	return Header{
		CRC:       binary.LittleEndian.Uint32(b[0:4]),
		Timestamp: binary.LittleEndian.Uint32(b[4:8]),
		KeySize:   binary.LittleEndian.Uint32(b[8:12]),
		ValueSize: binary.LittleEndian.Uint32(b[12:16]),
	}, nil
}

// Verify reports whether h.CRC matches the checksum of
// timestamp||key_size||value_size||key||value.
func Verify(h Header, key, value []byte) bool {
	rest := make([]byte, HeaderSize-4+len(key)+len(value))
	binary.LittleEndian.PutUint32(rest[0:4], h.Timestamp)
	binary.LittleEndian.PutUint32(rest[4:8], h.KeySize)
	binary.LittleEndian.PutUint32(rest[8:12], h.ValueSize)
	copy(rest[12:], key)
	copy(rest[12+len(key):], value)

	return Checksum(rest) == h.CRC
}

// Hint is a single decoded hint-file entry.
type Hint struct {
	Timestamp   uint32
	KeySize     uint32
	ValueSize   uint32
	ValueOffset int64
	Key         []byte
}

// EncodeHint assembles one hint-file entry.
func EncodeHint(timestamp uint32, valueOffset int64, key []byte, valueSize uint32) []byte {
	buf := make([]byte, HintHeaderSize+len(key))

	binary.LittleEndian.PutUint32(buf[0:4], timestamp)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(key)))
	binary.LittleEndian.PutUint32(buf[8:12], valueSize)
	binary.LittleEndian.PutUint64(buf[12:20], uint64(valueOffset))
	copy(buf[HintHeaderSize:], key)

	return buf
}

// DecodeHintHeader parses the fixed-size portion of a hint entry.
func DecodeHintHeader(b []byte) (Hint, error) {
	if len(b) < HintHeaderSize {
		return Hint{}, ErrCorruptRecord
	}

	return Hint{
		Timestamp:   binary.LittleEndian.Uint32(b[0:4]),
		KeySize:     binary.LittleEndian.Uint32(b[4:8]),
		ValueSize:   binary.LittleEndian.Uint32(b[8:12]),
		ValueOffset: int64(binary.LittleEndian.Uint64(b[12:20])),
	}, nil
}
