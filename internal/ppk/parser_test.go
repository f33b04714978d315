package ppk

import (
	"strings"
	"testing"
)

func TestParseContainer(t *testing.T) {
	input := strings.Join([]string{
		"PuTTY-User-Key-File-2: ssh-rsa",
		"Encryption: none",
		"Comment: test key",
		"Public-Lines: 2",
		"AAAA",
		"BBBB",
		"Private-Lines: 1",
		"CCCC",
		"Private-MAC: deadbeef",
	}, "\n")

	c, err := parseContainer(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	headers := map[string]string{
		"PuTTY-User-Key-File-2": "ssh-rsa",
		"Encryption":            "none",
		"Comment":               "test key",
		"Public-Lines":          "2",
		"Private-Lines":         "1",
		"Private-MAC":           "deadbeef",
	}
	for name, want := range headers {
		if got := c.headers[name]; got != want {
			t.Errorf("header %s = %q, want %q", name, got, want)
		}
	}

	if got := c.payload["Public-Lines"]; got != "AAAABBBB" {
		t.Errorf("public payload = %q, want AAAABBBB", got)
	}
	if got := c.payload["Private-Lines"]; got != "CCCC" {
		t.Errorf("private payload = %q, want CCCC", got)
	}
}

func TestParseContainerHeaderReplacement(t *testing.T) {
	input := "Comment: first\nComment: second\n"
	c, err := parseContainer(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.headers["Comment"]; got != "second" {
		t.Errorf("got %q, want second (later header wins)", got)
	}
}

func TestParseContainerIgnoresLeadingPayload(t *testing.T) {
	// Payload lines before the first header have no key to attach to.
	input := "orphan line\nComment: ok\ntail\n"
	c, err := parseContainer(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(c.payload) != 1 || c.payload["Comment"] != "tail" {
		t.Errorf("payload = %v", c.payload)
	}
}

func TestParseContainerColonInValue(t *testing.T) {
	// Only the first ": " splits; the rest stays in the value.
	input := "Comment: a: b: c\n"
	c, err := parseContainer(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.headers["Comment"]; got != "a: b: c" {
		t.Errorf("got %q", got)
	}
}
