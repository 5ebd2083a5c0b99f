package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/quasiscf/internal/config"
	sym "github.com/njchilds90/quasiscf/symbolic"
)

// namedMatrix is one matrix in a text or LaTeX listing.
type namedMatrix struct {
	name  string
	latex string
	m     *sym.Matrix
}

func writeMatrices(w io.Writer, format string, ms []namedMatrix) {
	for _, nm := range ms {
		if nm.m == nil {
			continue
		}
		if format == config.OutputLaTeX {
			_, _ = fmt.Fprintf(w, "\\[ %s = %s ,\\quad \\]\n", nm.latex, nm.m.LaTeX())
			continue
		}
		_, _ = fmt.Fprintf(w, "%s = %s\n", nm.name, nm.m)
	}
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// renderStructured handles the machine-readable formats. It reports false
// for the text formats, which each command renders itself.
func renderStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case config.OutputJSON:
		return true, renderJSON(w, v)
	case config.OutputYAML:
		return true, renderYAML(w, v)
	}
	return false, nil
}

// renderTable draws a light table on terminals and Markdown otherwise.
func renderTable(w io.Writer, header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.AppendRows(rows)
	if isTerminal(w) {
		t.Render()
		return
	}
	t.RenderMarkdown()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
