package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/klubi/adminctl/internal/access"
	"github.com/klubi/adminctl/internal/resource"
)

// printTable writes tabular data using aligned columns.
func printTable(out io.Writer, headers []string, rows [][]string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, h)
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		for i, col := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, col)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

// printJSON writes the value as pretty-printed JSON.
func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printYAML writes the value as YAML.
func printYAML(out io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

// printOutput dispatches to JSON, YAML, or table output. For table output
// headers and rows are built lazily by table.
func printOutput(out io.Writer, format string, v interface{}, table func() ([]string, [][]string)) error {
	switch format {
	case "json":
		if err := printJSON(out, v); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	case "yaml":
		if err := printYAML(out, v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
	default:
		headers, rows := table()
		printTable(out, headers, rows)
	}
	return nil
}

// printRows renders entity rows using the data columns of cols. Action
// columns are left out; they only make sense in the terminal UI.
func printRows(out io.Writer, format string, cols []access.Column, rows []resource.Row) error {
	return printOutput(out, format, rows, func() ([]string, [][]string) {
		var headers []string
		var accessors []string
		for _, c := range cols {
			if c.Action != access.ActionNone {
				continue
			}
			headers = append(headers, c.Header)
			accessors = append(accessors, c.Accessor)
		}
		table := make([][]string, 0, len(rows))
		for _, r := range rows {
			line := make([]string, len(accessors))
			for i, acc := range accessors {
				line[i] = boolColor(r.Text(acc))
			}
			table = append(table, line)
		}
		return headers, table
	})
}

// boolColor highlights boolean cells.
func boolColor(s string) string {
	switch s {
	case "true":
		return color.GreenString(s)
	case "false":
		return color.HiBlackString(s)
	default:
		return s
	}
}

// success prints a toast-style confirmation.
func success(out io.Writer, msg string) {
	color.New(color.FgGreen, color.Bold).Fprintln(out, msg)
}
