package ppk

import "crypto/sha1"

// deriveKey expands a passphrase into the 32 bytes of AES-256 key material
// PuTTY uses to protect the private blob. The convention is two SHA-1 passes,
// each seeded with a 4-byte big-endian sequence number before the passphrase
// bytes; the first digest contributes 20 bytes and the second the remaining 12.
func deriveKey(passphrase string) []byte {
	d1 := sha1.Sum(append([]byte{0, 0, 0, 0}, passphrase...))
	d2 := sha1.Sum(append([]byte{0, 0, 0, 1}, passphrase...))

	key := make([]byte, 32)
	copy(key[:20], d1[:])
	copy(key[20:], d2[:12])
	return key
}
