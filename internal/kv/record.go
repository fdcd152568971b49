package kv

import (
	"encoding/binary"
	"hash/crc32"
)

// Value encoding: varint headerLen | header | payload | crc32c(header|payload)

type valueKind byte

const (
	kindRecord valueKind = 'r'
	kindIDList valueKind = 'l'
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func encodeValue(kind valueKind, payload []byte) []byte {
	header := []byte{byte(kind)}
	out := make([]byte, 0, binary.MaxVarintLen64+len(header)+len(payload)+4)
	out = binary.AppendUvarint(out, uint64(len(header)))
	out = append(out, header...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	return binary.BigEndian.AppendUint32(out, crc)
}

// decodeValue returns the kind and payload, or false when b is not a
// well-formed value.
func decodeValue(b []byte) (valueKind, []byte, bool) {
	if len(b) < 1+1+4 {
		return 0, nil, false
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 || hlen != 1 {
		return 0, nil, false
	}
	if n+int(hlen)+4 > len(b) {
		return 0, nil, false
	}
	header := b[n : n+int(hlen)]
	payload := b[n+int(hlen) : len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != expect {
		return 0, nil, false
	}
	return valueKind(header[0]), payload, true
}
