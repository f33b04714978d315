package output

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

type TableFormatter struct{}

func (t *TableFormatter) Format(w io.Writer, data Data) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"Source",
		"Algorithm",
		"Bits",
		"Encryption",
		"Comment",
		"Fingerprint",
		"MAC",
	})

	table.SetBorder(false)
	table.SetCenterSeparator("|")
	table.SetColumnSeparator("|")
	table.SetRowSeparator("-")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

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
		table.Append(row)
	}

	table.Render()
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
