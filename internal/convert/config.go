package convert

import "time"

type Config struct {
	Files        []string `json:"files"`
	Passphrase   string   `json:"-"`
	OutputDir    string   `json:"output_dir"`
	Suffix       string   `json:"suffix"`
	ShowProgress bool     `json:"show_progress"`
	Verbose      bool     `json:"verbose"`
}

type Result struct {
	Source      string        `json:"source"`
	Output      string        `json:"output,omitempty"`
	Algorithm   string        `json:"algorithm,omitempty"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Duration    time.Duration `json:"duration"`
	Err         string        `json:"error,omitempty"`
}
