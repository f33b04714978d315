package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/user/ppkconvert/internal/ppk"
)

type JSONFormatter struct{}

type JSONOutput struct {
	Timestamp time.Time  `json:"timestamp"`
	Keys      []ppk.Info `json:"keys"`
	Summary   struct {
		TotalKeys int `json:"total_keys"`
		Encrypted int `json:"encrypted"`
	} `json:"summary"`
}

func (j *JSONFormatter) Format(w io.Writer, data Data) error {
	output := JSONOutput{
		Timestamp: time.Now(),
		Keys:      data.Keys,
	}

	output.Summary.TotalKeys = len(data.Keys)
	for _, key := range data.Keys {
		if key.Encryption != "none" {
			output.Summary.Encrypted++
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
