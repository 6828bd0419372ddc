package goserde

import (
	"sync"

	"github.com/zeebo/xxh3"
)

// Fingerprint64 hashes the schema's canonical form with xxh3. It is the fast
// default for compatibility caches and schema registries local to this module.
func (s *Schema) Fingerprint64() uint64 {
	return xxh3.Hash([]byte(s.Canonical()))
}

// FingerprintCRC64 hashes the schema's canonical form with the CRC-64 variant
// conventionally exchanged between serialization peers (polynomial
// 0xC15D213AA4D7A795, init equal to the polynomial's empty value, no final
// xor). Use this one when the fingerprint leaves the process.
func (s *Schema) FingerprintCRC64() uint64 {
	return crc64Fingerprint([]byte(s.Canonical()))
}

const crc64Empty = uint64(0xc15d213aa4d7a795)

var (
	crc64Once  sync.Once
	crc64Table [256]uint64
)

// hash/crc64 cannot express this variant: it applies an inverted init and a
// final xor that the interop definition omits, so the table loop lives here.
func crc64Fingerprint(data []byte) uint64 {
	crc64Once.Do(func() {
		for i := range crc64Table {
			fp := uint64(i)
			for j := 0; j < 8; j++ {
				fp = (fp >> 1) ^ (crc64Empty & -(fp & 1))
			}
			crc64Table[i] = fp
		}
	})
	fp := crc64Empty
	for _, b := range data {
		fp = (fp >> 8) ^ crc64Table[byte(fp)^b]
	}
	return fp
}
