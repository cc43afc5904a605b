// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package transform

import (
	"fmt"
	"math/bits"
)

// Synthetic identifiers are deterministic functions of content so repeated
// conversions produce byte-identical output. Three schemes are in play,
// matched to the stamping site that historically used them; all are unique
// per file, not globally.

// crcUUID derives a UUID-shaped identifier from a CRC-32 of the seed mixed
// with the ordinal. Used for ca/cert stamps, static routes, and the
// wireguard peer/tunnel identifiers.
func crcUUID(seed []byte, idx int) string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x", crc32(seed)^uint32(idx), 0, 0, 0, uint64(idx)+1)
}

// syntheticUUID is the fixed-prefix form used for DHCP relay records and
// OpenVPN instances derived from a numeric seed.
func syntheticUUID(n uint64) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012x", n&0xffffffffffff)
}

// accUUID folds the seed into a 16-byte accumulator with wrapping adds and
// rotations, then stamps version-4 and RFC-4122 variant nibbles. Used for
// bridge and IPsec connection records.
func accUUID(seed []byte, idx int) string {
	var acc [16]byte
	for i, b := range seed {
		acc[i%16] = bits.RotateLeft8(acc[i%16]+b, i%7)
	}
	for i := range acc {
		acc[i] += bits.RotateLeft8(byte(idx+i), idx%5)
	}
	acc[6] = (acc[6] & 0x0f) | 0x40
	acc[8] = (acc[8] & 0x3f) | 0x80
	return formatUUIDBytes(acc)
}

// lcgUUID expands a numeric seed through a 64-bit linear congruential mix
// into a version-4-shaped identifier. Used for VLAN stamping, where the
// seed is a base-131 hash of vlanif, parent device, and tag.
func lcgUUID(seed uint64) string {
	var acc [16]byte
	x := seed
	for i := range acc {
		x = x*6364136223846793005 + uint64(1+i)
		acc[i] = byte(x >> ((i % 8) * 8))
	}
	acc[6] = (acc[6] & 0x0f) | 0x40
	acc[8] = (acc[8] & 0x3f) | 0x80
	return formatUUIDBytes(acc)
}

func formatUUIDBytes(acc [16]byte) string {
	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		acc[0], acc[1], acc[2], acc[3], acc[4], acc[5], acc[6], acc[7],
		acc[8], acc[9], acc[10], acc[11], acc[12], acc[13], acc[14], acc[15])
}

func crc32(input []byte) uint32 {
	crc := uint32(0xffffffff)
	for _, b := range input {
		crc ^= uint32(b)
		for i := 0; i < 8; i++ {
			mask := -(crc & 1)
			crc = (crc >> 1) ^ (0xedb88320 & mask)
		}
	}
	return ^crc
}

// stringSeed is the base-131 string hash used as the lcgUUID seed.
func stringSeed(parts ...string) uint64 {
	var s uint64
	for _, p := range parts {
		for i := 0; i < len(p); i++ {
			s = s*131 + uint64(p[i])
		}
	}
	return s
}
