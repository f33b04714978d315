package ppk

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// decryptPrivateBlob reverses PuTTY's aes256-cbc protection. The format
// mandates a zero initialization vector and block-aligned private payloads;
// only whole blocks are transformed and any trailing partial block is passed
// through untouched. There is no padding to strip, so the plaintext is always
// the same length as the ciphertext.
//
// A wrong passphrase cannot be detected here: it simply yields garbage
// plaintext, which surfaces (if at all) as a format error when the blob is
// later parsed as wire integers.
func decryptPrivateBlob(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init aes256-cbc: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	copy(plaintext, ciphertext)

	n := len(ciphertext) / aes.BlockSize * aes.BlockSize
	iv := make([]byte, aes.BlockSize)
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext[:n], plaintext[:n])
	return plaintext, nil
}
