package convert

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

const sampleRSA = `PuTTY-User-Key-File-2: ssh-rsa
Encryption: none
Comment: rsa-key-20080514
Public-Lines: 4
AAAAB3NzaC1yc2EAAAABJQAAAIEAiPVUpONjGeVrwgRPOqy3Ym6kF/f8bltnmjA2
BMdAtaOpiD8A2ooqtLS5zWYuc0xkW0ogoKvORN+RF4JI+uNUlkxWxnzJM9JLpnvA
HrMoVFaQ0cgDMIHtE1Ob1cGAhlNInPCRnGNJpBNcJ/OJye3yt7WqHP4SPCCLb6nL
nmBUrLM=
Private-Lines: 8
AAAAgGtYgJzpktzyFjBIkSAmgeVdozVhgKmF6WsDMUID9HKwtU8cn83h6h7ug8qA
hUWcvVxO201/vViTjWVz9ALph3uMnpJiuQaaNYIGztGJBRsBwmQW9738pUXcsUXZ
79KJP01oHn6Wkrgk26DIOsz04QOBI6C8RumBO4+F1WdfueM9AAAAQQDmA4hcK8Bx
nVtEpcF310mKD3nsbJqARdw5NV9kCxPnEsmy7Sy1L4Ob/nTIrynbc3MA9HQVJkUz
7V0va5Pjm/T7AAAAQQCYbnG0UEekwk0LG1Hkxh1OrKMxCw2KWMN8ac3L0LVBg/Tk
8EnB2oT45GGeJaw7KzdoOMFZz0iXLsVLNUjNn2mpAAAAQQCN6SEfWqiNzyc/w5n/
lFVDHExfVUJp0wXv+kzZzylnw4fs00lC3k4PZDSsb+jYCMesnfJjhDgkUA0XPyo8
Emdk
Private-MAC: 50c45751d18d74c00fca395deb7b7695e3ed6f77
`

func TestRunnerBatch(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.ppk")
	if err := os.WriteFile(good, []byte(sampleRSA), 0o600); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.ppk")
	if err := os.WriteFile(bad, []byte("not a key file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	runner := NewRunner(Config{
		Files:     []string{good, bad},
		OutputDir: dir,
	})
	results := runner.Run()

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	if results[0].Err != "" {
		t.Fatalf("good file failed: %s", results[0].Err)
	}
	if results[0].Algorithm != "ssh-rsa" {
		t.Errorf("algorithm = %q", results[0].Algorithm)
	}
	if results[0].Output != filepath.Join(dir, "good.pem") {
		t.Errorf("output = %q", results[0].Output)
	}

	pemData, err := os.ReadFile(results[0].Output)
	if err != nil {
		t.Fatal(err)
	}
	block, _ := pem.Decode(pemData)
	if block == nil {
		t.Fatal("converted file is not PEM")
	}
	if _, err := x509.ParsePKCS1PrivateKey(block.Bytes); err != nil {
		t.Errorf("converted file is not a valid RSA key: %v", err)
	}

	// A file with no key material is reported, not fatal to the batch.
	if results[1].Err == "" {
		t.Error("bad file produced no error")
	}
	if results[1].Output != "" {
		t.Error("bad file claims an output")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		config Config
		source string
		want   string
	}{
		{Config{}, "/keys/id.ppk", "/keys/id.pem"},
		{Config{Suffix: ".key"}, "/keys/id.ppk", "/keys/id.key"},
		{Config{OutputDir: "/out"}, "/keys/id.ppk", "/out/id.pem"},
		{Config{}, "noext", "noext.pem"},
	}

	for _, test := range tests {
		r := NewRunner(test.config)
		if got := r.OutputPath(test.source); got != test.want {
			t.Errorf("OutputPath(%q) = %q, want %q", test.source, got, test.want)
		}
	}
}
