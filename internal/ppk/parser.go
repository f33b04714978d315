package ppk

import (
	"bufio"
	"io"
	"strings"
)

// container is the raw parsed form of a PPK file: one entry per
// "Name: value" header line, plus the concatenated payload lines that
// followed each header. Payload lines attach to the most recently seen
// header name, so "Public-Lines" and "Private-Lines" double as block markers.
type container struct {
	headers map[string]string
	payload map[string]string
}

func parseContainer(r io.Reader) (*container, error) {
	c := &container{
		headers: make(map[string]string),
		payload: make(map[string]string),
	}

	current := ""
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, ": "); idx > 0 {
			current = line[:idx]
			c.headers[current] = line[idx+2:]
			continue
		}
		// A payload line before any header has nothing to attach to.
		if current != "" {
			c.payload[current] += line
		}
	}
	return c, scanner.Err()
}
