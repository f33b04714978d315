package ppk

import (
	"encoding/binary"
	"math/big"
)

// blobReader walks the length-prefixed fields inside a PPK key blob. Each
// field is a 4-byte big-endian length followed by that many bytes. The cursor
// only moves forward; running off the end of the blob means the container is
// corrupt or was decrypted with the wrong passphrase.
type blobReader struct {
	blob []byte
	off  int
}

func newBlobReader(blob []byte) *blobReader {
	return &blobReader{blob: blob}
}

func (r *blobReader) next() ([]byte, error) {
	if r.off+4 > len(r.blob) {
		return nil, &FormatError{Msg: "truncated field length in key blob"}
	}
	n := uint64(binary.BigEndian.Uint32(r.blob[r.off:]))
	r.off += 4
	if uint64(len(r.blob)-r.off) < n {
		return nil, &FormatError{Msg: "field extends past end of key blob"}
	}
	field := r.blob[r.off : r.off+int(n)]
	r.off += int(n)
	return field, nil
}

// Skip discards one field. The public blob starts with a copy of the
// algorithm name, which the converter has no use for.
func (r *blobReader) Skip() error {
	_, err := r.next()
	return err
}

// ReadInt reads the next field as a big-endian two's-complement integer.
func (r *blobReader) ReadInt() (*big.Int, error) {
	field, err := r.next()
	if err != nil {
		return nil, err
	}
	v := new(big.Int).SetBytes(field)
	// Key material is always a non-negative magnitude in practice, but the
	// wire convention allows a sign bit; honor it.
	if len(field) > 0 && field[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(len(field)*8)))
	}
	return v, nil
}
