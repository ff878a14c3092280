package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Format selects how summaries are written
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an output format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected table, json or yaml)", s)
	}
}

// Write renders summaries to w in the given format
func Write(w io.Writer, format Format, summaries []Summary) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summaries); err != nil {
			return err
		}
		return enc.Close()
	default:
		return WriteTable(w, summaries)
	}
}

// WriteTable renders one row per timing
func WriteTable(w io.Writer, summaries []Summary) error {
	table := tablewriter.NewWriter(w)
	table.Header("Name", "State", "Laps", "Last Lap", "Total", "Average", "Median", "Std Dev")

	for _, s := range summaries {
		lastLap := "-"
		if len(s.LapTimes) > 0 {
			lastLap = formatSeconds(&s.LapTimes[len(s.LapTimes)-1])
		}
		if err := table.Append([]string{
			s.Name,
			s.State,
			strconv.Itoa(len(s.Laps)),
			lastLap,
			formatSeconds(s.Total),
			formatSeconds(s.Average),
			formatSeconds(s.Median),
			formatSeconds(s.StdDev),
		}); err != nil {
			return fmt.Errorf("failed to append row for %s: %w", s.Name, err)
		}
	}

	return table.Render()
}

func formatSeconds(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 3, 64) + "s"
}
