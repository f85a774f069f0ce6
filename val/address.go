package val

import (
	"encoding/base32"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// AddressKind distinguishes account from contract identifiers.
type AddressKind uint8

const (
	AddressAccount  AddressKind = 0
	AddressContract AddressKind = 1
)

func (k AddressKind) String() string {
	switch k {
	case AddressAccount:
		return "account"
	case AddressContract:
		return "contract"
	}
	return fmt.Sprintf("AddressKind(%d)", uint8(k))
}

// Address is an opaque account or contract identifier.
type Address struct {
	Type AddressKind
	ID   [32]byte
}

// strkey version bytes: 'G' for accounts, 'C' for contracts.
const (
	versionAccount  byte = 6 << 3
	versionContract byte = 2 << 3
)

var strkeyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// IsZero reports whether a is the zero account address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String renders a in strkey form.
func (a Address) String() string {
	var version byte
	switch a.Type {
	case AddressAccount:
		version = versionAccount
	case AddressContract:
		version = versionContract
	default:
		return "invalid:" + hex.EncodeToString(a.ID[:])
	}
	buf := make([]byte, 0, 1+32+2)
	buf = append(buf, version)
	buf = append(buf, a.ID[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, crc16(buf))
	return strkeyEncoding.EncodeToString(buf)
}

// ParseAddress decodes a strkey account ('G...') or contract ('C...') address.
func ParseAddress(s string) (Address, error) {
	raw, err := strkeyEncoding.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("address %q: %w", s, err)
	}
	if len(raw) != 35 {
		return Address{}, fmt.Errorf("address %q: length %d", s, len(raw))
	}
	payload, sum := raw[:33], binary.LittleEndian.Uint16(raw[33:])
	if crc16(payload) != sum {
		return Address{}, fmt.Errorf("address %q: checksum mismatch", s)
	}
	var a Address
	switch payload[0] {
	case versionAccount:
		a.Type = AddressAccount
	case versionContract:
		a.Type = AddressContract
	default:
		return Address{}, fmt.Errorf("address %q: unknown version byte 0x%02x", s, payload[0])
	}
	copy(a.ID[:], payload[1:])
	return a, nil
}

// MustParseAddress is ParseAddress that panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// crc16 is CRC-16/XMODEM.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
