package der

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"strings"
	"testing"
)

func TestWriteIntegerEncoding(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  []byte
	}{
		{"zero", 0, []byte{0x02, 0x01, 0x00}},
		{"small", 127, []byte{0x02, 0x01, 0x7f}},
		{"sign padded", 128, []byte{0x02, 0x02, 0x00, 0x80}},
		{"two bytes", 0x0102, []byte{0x02, 0x02, 0x01, 0x02}},
	}

	for _, test := range tests {
		var enc Encoder
		enc.Write(big.NewInt(test.value))
		if !bytes.Equal(enc.Bytes(), test.want) {
			t.Errorf("%s: got % x, want % x", test.name, enc.Bytes(), test.want)
		}
	}
}

func TestLongFormLength(t *testing.T) {
	// A 2048-bit modulus needs a multi-byte length encoding.
	v := new(big.Int).Lsh(big.NewInt(1), 2047)

	var enc Encoder
	enc.Write(v)

	b := enc.Bytes()
	if b[1]&0x80 == 0 {
		t.Fatalf("expected long-form length, got %#x", b[1])
	}

	var decoded *big.Int
	rest, err := asn1.Unmarshal(b, &decoded)
	if err != nil {
		t.Fatalf("asn1 rejected encoding: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("trailing bytes after integer: %d", len(rest))
	}
	if decoded.Cmp(v) != 0 {
		t.Errorf("round trip mismatch: got %v", decoded)
	}
}

func TestSignPaddingRoundTrip(t *testing.T) {
	// Values whose top magnitude bit is set must decode as non-negative.
	for _, bits := range []uint{8, 16, 31, 64, 1024} {
		v := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))

		var enc Encoder
		enc.Write(v)

		var decoded *big.Int
		if _, err := asn1.Unmarshal(enc.Bytes(), &decoded); err != nil {
			t.Fatalf("bits=%d: %v", bits, err)
		}
		if decoded.Sign() < 0 {
			t.Errorf("bits=%d: decoded negative", bits)
		}
		if decoded.Cmp(v) != 0 {
			t.Errorf("bits=%d: got %v, want %v", bits, decoded, v)
		}
	}
}

func TestRSASequenceParsesAsPKCS1(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("generate test key: %v", err)
	}

	p, q := key.Primes[0], key.Primes[1]
	one := big.NewInt(1)
	dmp1 := new(big.Int).Mod(key.D, new(big.Int).Sub(p, one))
	dmq1 := new(big.Int).Mod(key.D, new(big.Int).Sub(q, one))
	iqmp := new(big.Int).ModInverse(q, p)

	var enc Encoder
	enc.Write(big.NewInt(0), key.N, big.NewInt(int64(key.E)), key.D, p, q, dmp1, dmq1, iqmp)
	text := EncodePEM("RSA", enc.Bytes())

	block, rest := pem.Decode([]byte(text))
	if block == nil {
		t.Fatal("output is not valid PEM")
	}
	if len(rest) != 0 {
		t.Errorf("trailing data after PEM block: %q", rest)
	}
	if block.Type != "RSA PRIVATE KEY" {
		t.Errorf("PEM type = %q", block.Type)
	}

	parsed, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		t.Fatalf("x509 rejected encoding: %v", err)
	}
	if parsed.N.Cmp(key.N) != 0 || parsed.D.Cmp(key.D) != 0 {
		t.Error("decoded key differs from input")
	}
	if err := parsed.Validate(); err != nil {
		t.Errorf("decoded key fails validation: %v", err)
	}
}

func TestDSASequence(t *testing.T) {
	// Structural test only: the DSA tuple follows the same encoder rules, so
	// arbitrary big values are enough to exercise them.
	p := new(big.Int).SetBytes(bytes.Repeat([]byte{0xa5}, 128))
	q := new(big.Int).SetBytes(bytes.Repeat([]byte{0x9c}, 20))
	g := big.NewInt(2)
	y := new(big.Int).SetBytes(bytes.Repeat([]byte{0x7e}, 127))
	x := new(big.Int).SetBytes(bytes.Repeat([]byte{0x11}, 20))

	var enc Encoder
	enc.Write(big.NewInt(0), p, q, g, y, x)
	text := EncodePEM("DSA", enc.Bytes())

	block, _ := pem.Decode([]byte(text))
	if block == nil {
		t.Fatal("output is not valid PEM")
	}
	if block.Type != "DSA PRIVATE KEY" {
		t.Errorf("PEM type = %q", block.Type)
	}

	var decoded struct {
		Version int
		P, Q, G *big.Int
		Y, X    *big.Int
	}
	if _, err := asn1.Unmarshal(block.Bytes, &decoded); err != nil {
		t.Fatalf("asn1 rejected encoding: %v", err)
	}
	if decoded.Version != 0 {
		t.Errorf("version = %d, want 0", decoded.Version)
	}
	for i, pair := range [][2]*big.Int{{decoded.P, p}, {decoded.Q, q}, {decoded.G, g}, {decoded.Y, y}, {decoded.X, x}} {
		if pair[0].Cmp(pair[1]) != 0 {
			t.Errorf("element %d mismatch", i)
		}
	}
}

func TestBase64Wrapping(t *testing.T) {
	var enc Encoder
	enc.WriteSequence(bytes.Repeat([]byte{0xab}, 200))

	s := enc.Base64()
	if !strings.HasSuffix(s, "\n") {
		t.Error("missing trailing newline")
	}
	for i, line := range strings.Split(strings.TrimSuffix(s, "\n"), "\n") {
		if len(line) > 64 {
			t.Errorf("line %d is %d chars", i, len(line))
		}
		if len(line) == 0 {
			t.Errorf("line %d is empty", i)
		}
	}
}
