// Package ppk reads PuTTY's ".ppk" private key container and converts the
// key material to the OpenSSH PEM representation.
//
// A PPK file is line-oriented text: "Name: value" headers with base64 payload
// blocks attached to the Public-Lines and Private-Lines markers. The private
// blob may be protected with aes256-cbc under a passphrase-derived key. Only
// the two legacy key types, ssh-rsa and ssh-dss, are supported.
//
// The file has no fixed encoding; PuTTY writes it in the platform default.
// The material portions are all ASCII, so treating the input as UTF-8 is
// safe in practice.
package ppk

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/user/ppkconvert/internal/der"
)

// signature marks a file as a PuTTY key container.
const signature = "PuTTY-User-Key-File-"

// headerKeyType is the header carrying the declared algorithm.
const headerKeyType = "PuTTY-User-Key-File-2"

const cipherAES256CBC = "aes256-cbc"

// Supported key types.
const (
	AlgoRSA = "ssh-rsa"
	AlgoDSA = "ssh-dss"
)

// Key is a parsed PPK container. Construction fully consumes the input and
// runs the decryption pass; conversion afterwards is a pure function of the
// held state and can be called any number of times.
type Key struct {
	headers    map[string]string
	publicKey  []byte
	privateKey []byte
}

// ParseFile reads and parses the PPK file at path. The passphrase is only
// used when the container declares aes256-cbc encryption.
func ParseFile(path, passphrase string) (*Key, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, passphrase)
}

// ParseBytes parses a PPK container held in memory.
func ParseBytes(b []byte, passphrase string) (*Key, error) {
	return Parse(bytes.NewReader(b), passphrase)
}

// Parse reads a PPK container from r. Note that a wrong passphrase is not
// detected here: decryption succeeds regardless and the damage only shows up
// later, if at all, when the private blob fails to parse. The Private-MAC
// header exists to catch this but is not consumed for trust decisions.
func Parse(r io.Reader, passphrase string) (*Key, error) {
	c, err := parseContainer(r)
	if err != nil {
		return nil, fmt.Errorf("read ppk container: %w", err)
	}

	publicKey, err := base64.StdEncoding.DecodeString(c.payload["Public-Lines"])
	if err != nil {
		return nil, &FormatError{Msg: "bad Public-Lines payload: " + err.Error()}
	}
	privateKey, err := base64.StdEncoding.DecodeString(c.payload["Private-Lines"])
	if err != nil {
		return nil, &FormatError{Msg: "bad Private-Lines payload: " + err.Error()}
	}

	switch enc := c.headers["Encryption"]; enc {
	case "", "none":
	case cipherAES256CBC:
		privateKey, err = decryptPrivateBlob(privateKey, deriveKey(passphrase))
		if err != nil {
			return nil, err
		}
	default:
		return nil, &UnsupportedCipherError{Cipher: enc}
	}

	return &Key{
		headers:    c.headers,
		publicKey:  publicKey,
		privateKey: privateKey,
	}, nil
}

// Algorithm returns the declared key type exactly as written in the file,
// "ssh-rsa" or "ssh-dss" for a supported key.
func (k *Key) Algorithm() string {
	return k.headers[headerKeyType]
}

// Comment returns the free-text comment header, if any.
func (k *Key) Comment() string {
	return k.headers["Comment"]
}

// Encrypted reports whether the container declared passphrase protection.
func (k *Key) Encrypted() bool {
	return k.headers["Encryption"] == cipherAES256CBC
}

// ToOpenSSH converts the key to OpenSSH's PEM-framed private key text.
//
// For RSA the public blob yields (e, n) after skipping the algorithm name,
// the private blob yields (d, p, q, iqmp), and the PKCS#1 structure
// (0, n, e, d, p, q, dmp1, dmq1, iqmp) is emitted with dmp1/dmq1 derived.
// For DSA the blobs yield (p, q, g, y) and (x), emitted as (0, p, q, g, y, x).
func (k *Key) ToOpenSSH() (string, error) {
	switch k.Algorithm() {
	case AlgoRSA:
		pub := newBlobReader(k.publicKey)
		if err := pub.Skip(); err != nil {
			return "", err
		}
		vals, err := readInts(pub, 2)
		if err != nil {
			return "", err
		}
		e, n := vals[0], vals[1]

		vals, err = readInts(newBlobReader(k.privateKey), 4)
		if err != nil {
			return "", err
		}
		d, p, q, iqmp := vals[0], vals[1], vals[2], vals[3]

		one := big.NewInt(1)
		dmp1 := new(big.Int).Mod(d, new(big.Int).Sub(p, one))
		dmq1 := new(big.Int).Mod(d, new(big.Int).Sub(q, one))

		var enc der.Encoder
		enc.Write(big.NewInt(0), n, e, d, p, q, dmp1, dmq1, iqmp)
		return der.EncodePEM("RSA", enc.Bytes()), nil

	case AlgoDSA:
		pub := newBlobReader(k.publicKey)
		if err := pub.Skip(); err != nil {
			return "", err
		}
		vals, err := readInts(pub, 4)
		if err != nil {
			return "", err
		}
		p, q, g, y := vals[0], vals[1], vals[2], vals[3]

		x, err := newBlobReader(k.privateKey).ReadInt()
		if err != nil {
			return "", err
		}

		var enc der.Encoder
		enc.Write(big.NewInt(0), p, q, g, y, x)
		return der.EncodePEM("DSA", enc.Bytes()), nil
	}

	return "", &UnsupportedAlgorithmError{Algorithm: k.Algorithm()}
}

// WriteOpenSSH converts the key and writes the PEM text to path. The file is
// created with mode 0600 since it holds unprotected private key material.
func (k *Key) WriteOpenSSH(path string) error {
	text, err := k.ToOpenSSH()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return fmt.Errorf("write converted key: %w", err)
	}
	return nil
}

func readInts(r *blobReader, count int) ([]*big.Int, error) {
	vals := make([]*big.Int, count)
	for i := range vals {
		v, err := r.ReadInt()
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// Info summarizes a parsed key for display.
type Info struct {
	Source      string `json:"source,omitempty"`
	Algorithm   string `json:"algorithm"`
	Comment     string `json:"comment,omitempty"`
	Encryption  string `json:"encryption"`
	Bits        int    `json:"bits"`
	Fingerprint string `json:"fingerprint,omitempty"`
	HasMAC      bool   `json:"has_mac"`
}

// Info reports file-level metadata without touching the private blob, so it
// is valid even when no passphrase was supplied for an encrypted key.
func (k *Key) Info() Info {
	info := Info{
		Algorithm:  k.Algorithm(),
		Comment:    k.Comment(),
		Encryption: k.headers["Encryption"],
	}
	if info.Encryption == "" {
		info.Encryption = "none"
	}
	_, info.HasMAC = k.headers["Private-MAC"]

	if pub, err := ssh.ParsePublicKey(k.publicKey); err == nil {
		info.Fingerprint = ssh.FingerprintSHA256(pub)
	}
	info.Bits = k.bitLen()
	return info
}

// bitLen reports the modulus (RSA) or prime modulus (DSA) size in bits.
func (k *Key) bitLen() int {
	r := newBlobReader(k.publicKey)
	if err := r.Skip(); err != nil {
		return 0
	}
	v, err := r.ReadInt()
	if err != nil {
		return 0
	}
	if k.Algorithm() == AlgoRSA {
		// For RSA the first integer is the public exponent; the modulus
		// follows it.
		if v, err = r.ReadInt(); err != nil {
			return 0
		}
	}
	return v.BitLen()
}

// IsPuTTYKeyFile reports whether the file at path looks like a PPK container.
func IsPuTTYKeyFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	return IsPuTTYKey(f)
}

// IsPuTTYKey reports whether the text read from r looks like a PPK
// container: some line starts with the "PuTTY-User-Key-File-" signature.
func IsPuTTYKey(r io.Reader) (bool, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), signature) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// IsPuTTYKeyBytes reports whether b holds a PPK container.
func IsPuTTYKeyBytes(b []byte) bool {
	ok, _ := IsPuTTYKey(bytes.NewReader(b))
	return ok
}
