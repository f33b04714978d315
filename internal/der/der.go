// Package der implements the small subset of DER needed to emit PKCS#1 RSA
// and OpenSSL-style DSA private key structures: INTEGER and SEQUENCE nodes
// with definite-length encoding, plus the PEM text framing around them.
package der

import (
	"encoding/base64"
	"math/big"
	"strings"
)

const (
	tagInteger  = 0x02
	tagSequence = 0x30
)

// Encoder accumulates DER-encoded nodes in the order they are written.
// The zero value is ready to use.
type Encoder struct {
	buf []byte
}

// Write appends one INTEGER node per value, in order.
func (e *Encoder) Write(values ...*big.Int) *Encoder {
	for _, v := range values {
		e.writeInt(v)
	}
	return e
}

func (e *Encoder) writeInt(v *big.Int) {
	b := v.Bytes()
	if len(b) == 0 {
		b = []byte{0}
	}
	// A set high bit would flip the sign under DER's two's-complement
	// INTEGER rules; pad with a zero byte to keep the value non-negative.
	if b[0]&0x80 != 0 {
		b = append([]byte{0}, b...)
	}
	e.buf = append(e.buf, tagInteger)
	e.writeLength(len(b))
	e.buf = append(e.buf, b...)
}

// WriteSequence appends one SEQUENCE node wrapping the already-encoded
// inner bytes.
func (e *Encoder) WriteSequence(inner []byte) *Encoder {
	e.buf = append(e.buf, tagSequence)
	e.writeLength(len(inner))
	e.buf = append(e.buf, inner...)
	return e
}

// writeLength emits a DER definite length: one byte up to 127, otherwise a
// count byte with the high bit set followed by the minimal big-endian length.
func (e *Encoder) writeLength(n int) {
	if n <= 0x7f {
		e.buf = append(e.buf, byte(n))
		return
	}
	var lenBytes []byte
	for v := n; v > 0; v >>= 8 {
		lenBytes = append([]byte{byte(v)}, lenBytes...)
	}
	e.buf = append(e.buf, 0x80|byte(len(lenBytes)))
	e.buf = append(e.buf, lenBytes...)
}

// Bytes returns the nodes encoded so far.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Base64 renders the encoded bytes as base64 wrapped at 64 columns, PEM
// style, with a trailing newline.
func (e *Encoder) Base64() string {
	s := base64.StdEncoding.EncodeToString(e.buf)
	var b strings.Builder
	for len(s) > 64 {
		b.WriteString(s[:64])
		b.WriteByte('\n')
		s = s[64:]
	}
	if len(s) > 0 {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	return b.String()
}

// EncodePEM wraps the already-encoded inner nodes in a single SEQUENCE and
// frames the result as a "-----BEGIN <typ> PRIVATE KEY-----" text block.
func EncodePEM(typ string, inner []byte) string {
	var enc Encoder
	enc.WriteSequence(inner)
	return "-----BEGIN " + typ + " PRIVATE KEY-----\n" +
		enc.Base64() +
		"-----END " + typ + " PRIVATE KEY-----\n"
}
