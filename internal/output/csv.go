package output

import (
	"encoding/csv"
	"fmt"
	"io"
)

type CSVFormatter struct{}

func (c *CSVFormatter) Format(w io.Writer, data Data) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{
		"Source",
		"Algorithm",
		"Bits",
		"Encryption",
		"Comment",
		"Fingerprint",
		"HasMAC",
	}

	if err := writer.Write(header); err != nil {
		return err
	}

	for _, key := range data.Keys {
		row := []string{
			key.Source,
			key.Algorithm,
			fmt.Sprintf("%d", key.Bits),
			key.Encryption,
			key.Comment,
			key.Fingerprint,
			yesNo(key.HasMAC),
		}

		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return nil
}
