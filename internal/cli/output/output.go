// Package output renders command results as tables, JSON, CSV or markdown.
package output

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/leapstack-labs/druidql/pkg/query"
	"github.com/leapstack-labs/druidql/pkg/serde"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects how results are written.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeTable    Mode = "table"
	ModeJSON     Mode = "json"
	ModeCSV      Mode = "csv"
	ModeMarkdown Mode = "markdown"
)

// Styles are the terminal styles used for decorations.
type Styles struct {
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Header  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Bold:    r.NewStyle().Bold(true),
		Header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
	}
}

// Renderer writes results to out and diagnostics to errOut.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	styles Styles
}

// NewRenderer creates a renderer. Colors are only emitted when out is a
// terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  IsTerminal(out),
		styles: newStyles(lipgloss.NewRenderer(out, termenv.WithColorCache(true))),
	}
}

// IsTerminal reports whether v is a terminal file.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// EffectiveMode resolves ModeAuto: a table on terminals, JSON otherwise.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeTable
	}
	return ModeJSON
}

// Styles returns the renderer's styles.
func (r *Renderer) Styles() Styles { return r.styles }

// Writer returns the result writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// Println writes a line to the result writer.
func (r *Renderer) Println(a ...any) { _, _ = fmt.Fprintln(r.out, a...) }

// Printf writes formatted text to the result writer.
func (r *Renderer) Printf(format string, a ...any) { _, _ = fmt.Fprintf(r.out, format, a...) }

// Header writes a section title. It is suppressed in JSON and CSV modes
// so the output stays machine readable.
func (r *Renderer) Header(title string) {
	switch r.EffectiveMode() {
	case ModeTable:
		r.Println(r.styles.Header.Render(title))
	case ModeMarkdown:
		r.Printf("## %s\n\n", title)
	}
}

// Muted writes a dim note to the diagnostic writer.
func (r *Renderer) Muted(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Muted.Render(msg))
}

// Success writes a confirmation to the diagnostic writer.
func (r *Renderer) Success(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Success.Render(msg))
}

// Error writes err to the diagnostic writer.
func (r *Renderer) Error(err error) {
	PrintError(r.errOut, err)
}

// PrintError writes err to w with an error style. Hint lines are dimmed.
func PrintError(w io.Writer, err error) {
	lr := lipgloss.NewRenderer(w)
	errStyle := lr.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	hintStyle := lr.NewStyle().Foreground(lipgloss.Color("8"))

	lines := strings.Split(err.Error(), "\n")
	_, _ = fmt.Fprintln(w, errStyle.Render("Error:")+" "+lines[0])
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "Hint:") {
			line = hintStyle.Render(line)
		}
		_, _ = fmt.Fprintln(w, line)
	}
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	data, err := serde.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(r.out, string(data))
	return err
}

// Table is a rectangular result.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Objects returns one column-keyed object per row.
func (t Table) Objects() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		obj := make(map[string]any, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				obj[col] = row[i]
			} else {
				obj[col] = nil
			}
		}
		out = append(out, obj)
	}
	return out
}

// Table writes t in the effective mode.
func (r *Renderer) Table(t Table) error {
	mode := r.EffectiveMode()
	if mode == ModeJSON {
		return r.JSON(t.Objects())
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)
	tw.SetStyle(table.StyleLight)
	// Druid column names are case sensitive.
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	tw.AppendHeader(header)

	for _, row := range t.Rows {
		tr := make(table.Row, len(t.Columns))
		for i := range t.Columns {
			var v any
			if i < len(row) {
				v = row[i]
			}
			tr[i] = FormatValue(v)
		}
		tw.AppendRow(tr)
	}

	switch mode {
	case ModeCSV:
		tw.RenderCSV()
	case ModeMarkdown:
		tw.RenderMarkdown()
	default:
		tw.AppendFooter(table.Row{fmt.Sprintf("(%d rows)", len(t.Rows))})
		tw.Render()
	}
	return nil
}

// FormatValue renders a cell. Nil is shown as NULL and nested values as
// compact JSON.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool, int, int64, int32:
		return fmt.Sprint(v)
	case query.JSONAny:
		return FormatValue(v.Value())
	case *query.JSONAny:
		if v == nil {
			return "NULL"
		}
		return FormatValue(v.Value())
	case fmt.Stringer:
		return v.String()
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "NULL"
		}
		return FormatValue(rv.Elem().Interface())
	}
	data, err := serde.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
