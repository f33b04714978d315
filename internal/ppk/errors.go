package ppk

import "fmt"

// FormatError reports a malformed or truncated PPK container. Because a
// wrong passphrase produces garbage plaintext rather than a detectable
// failure, it too tends to surface as a FormatError during blob parsing.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string {
	return "ppk: " + e.Msg
}

// UnsupportedAlgorithmError reports a declared key type this converter does
// not handle.
type UnsupportedAlgorithmError struct {
	Algorithm string
}

func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("ppk: unrecognized key type %q", e.Algorithm)
}

// UnsupportedCipherError reports an Encryption header naming a cipher this
// converter does not handle.
type UnsupportedCipherError struct {
	Cipher string
}

func (e *UnsupportedCipherError) Error() string {
	return fmt.Sprintf("ppk: unsupported encryption %q", e.Cipher)
}
