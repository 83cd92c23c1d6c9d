package wddr

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// ImageHeader is the fixed-layout record placed in a dedicated ELF
// section of the firmware image (base spec §6 "Persisted state").
// DecodeImageHeader checks its magic and CRC; nothing in this module
// runs that check at boot.
//
// The layout technique (a fixed-size struct read back out of a raw
// byte slice) is grounded on ftdi/eeprom.go's EEPROMHeader, which
// aliases a []byte buffer via unsafe.Pointer; this port uses
// encoding/binary instead of unsafe aliasing since the header is
// small, fixed, and only ever read once at boot.
type ImageHeader struct {
	Magic        uint32
	VersionMajor uint8
	VersionMinor uint8
	VersionPatch uint8
	_            uint8 // padding to a 4-byte boundary
	VectorAddr   uint32
	GitSHA       [20]byte
	CRC32        uint32
}

// ImageHeaderMagic is the fixed magic value identifying a valid
// header.
const ImageHeaderMagic uint32 = 0x57444452 // "WDDR"

// imageHeaderBodySize is the encoded size in bytes, excluding the trailing
// CRC32 word (the CRC covers every byte before it).
const imageHeaderBodySize = 4 + 4 + 4 + 20 // Magic+version+pad, VectorAddr, GitSHA

// EncodeImageHeader serializes h into a fixed little-endian layout,
// computing CRC32 over every field but the CRC itself — matching
// "computed post-link" in base spec §6.
func EncodeImageHeader(h ImageHeader) []byte {
	buf := make([]byte, imageHeaderBodySize+4)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.VersionMajor
	buf[5] = h.VersionMinor
	buf[6] = h.VersionPatch
	buf[7] = 0
	binary.LittleEndian.PutUint32(buf[8:12], h.VectorAddr)
	copy(buf[12:32], h.GitSHA[:])
	crc := crc32.ChecksumIEEE(buf[:32])
	binary.LittleEndian.PutUint32(buf[32:36], crc)
	return buf
}

// ErrBadImageHeader is returned by DecodeImageHeader when the magic or
// CRC does not match.
var ErrBadImageHeader = errors.New("wddr: bad image header")

// DecodeImageHeader parses and validates a header previously produced
// by EncodeImageHeader.
func DecodeImageHeader(buf []byte) (ImageHeader, error) {
	var h ImageHeader
	if len(buf) < imageHeaderBodySize+4 {
		return h, ErrBadImageHeader
	}
	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	if h.Magic != ImageHeaderMagic {
		return h, ErrBadImageHeader
	}
	h.VersionMajor = buf[4]
	h.VersionMinor = buf[5]
	h.VersionPatch = buf[6]
	h.VectorAddr = binary.LittleEndian.Uint32(buf[8:12])
	copy(h.GitSHA[:], buf[12:32])
	h.CRC32 = binary.LittleEndian.Uint32(buf[32:36])

	want := crc32.ChecksumIEEE(buf[:32])
	if want != h.CRC32 {
		return h, ErrBadImageHeader
	}
	return h, nil
}
