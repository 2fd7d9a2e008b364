// Package icrypto builds the associated data that binds sealed index records
// to their identity.
package icrypto

import (
	"encoding/binary"
)

const (
	aadEntry = "ENTRY"
	aadCheck = "CHECK"
)

// AADEntry binds a sealed entry to its record ID and envelope version, so a
// ciphertext copied under another ID fails to open.
func AADEntry(entryID string, ver int) []byte {
	return buildAAD(aadEntry, entryID, ver)
}

// AADIndexCheck binds the key-check record of an index.
func AADIndexCheck(ver int) []byte {
	return buildAAD(aadCheck, ver)
}

func buildAAD(parts ...any) []byte {
	var res []byte
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			res = appendLenPrefix(res, []byte(v))
		case int:
			res = binary.BigEndian.AppendUint32(res, uint32(v))
		}
	}
	return res
}

func appendLenPrefix(b, data []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(data)))
	return append(b, data...)
}
