package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Formatter writes CLI output as JSON or styled text.
type Formatter struct {
	writer io.Writer
	json   bool
	styles styles
}

type styles struct {
	pass, fail, muted, header, added, removed lipgloss.Style
}

// NewFormatter creates a text formatter. Colors are used only when writer
// is a terminal.
func NewFormatter(writer io.Writer) *Formatter {
	r := lipgloss.NewRenderer(writer)
	return &Formatter{
		writer: writer,
		styles: styles{
			pass:    r.NewStyle().Foreground(lipgloss.Color("#73F59F")).Bold(true),
			fail:    r.NewStyle().Foreground(lipgloss.Color("#FF8787")).Bold(true),
			muted:   r.NewStyle().Foreground(lipgloss.Color("#BBBBBB")),
			header:  r.NewStyle().Foreground(lipgloss.Color("#54A0FF")).Bold(true),
			added:   r.NewStyle().Foreground(lipgloss.Color("#73F59F")),
			removed: r.NewStyle().Foreground(lipgloss.Color("#FF8787")),
		},
	}
}

// NewJSONFormatter creates a formatter writing indented JSON.
func NewJSONFormatter(writer io.Writer) *Formatter {
	f := NewFormatter(writer)
	f.json = true
	return f
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatSpecs writes the specs parsed from input.
func (f *Formatter) FormatSpecs(input string, specs []SpecDTO) error {
	if f.json {
		return f.encode(specs)
	}
	if _, err := fmt.Fprintln(f.writer, f.styles.header.Render(fmt.Sprintf("%q", input))); err != nil {
		return err
	}
	for _, s := range specs {
		line := fmt.Sprintf("  type=%q namespaces=[%s]", s.Type, strings.Join(s.Namespaces, " "))
		if s.Empty {
			line += " " + f.styles.muted.Render("(no-op)")
		}
		if _, err := fmt.Fprintln(f.writer, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatResult writes one scenario result.
func (f *Formatter) FormatResult(r ResultDTO) error {
	if f.json {
		return f.encode(r)
	}

	var b strings.Builder
	badge := f.styles.pass.Render("PASS")
	if !r.Passed {
		badge = f.styles.fail.Render("FAIL")
	}
	fmt.Fprintf(&b, "%s %s %s\n", badge, r.Scenario,
		f.styles.muted.Render(fmt.Sprintf("(%d steps, %d expectations, %.2fms, run %s)",
			r.Steps, r.Expectations, r.DurationMs, r.RunID)))

	for _, fl := range r.Failures {
		fmt.Fprintf(&b, "  step %d: records differ\n", fl.Step)
		for _, line := range strings.SplitAfter(fl.Diff, "\n") {
			if line == "" {
				continue
			}
			text := "    " + strings.TrimSuffix(line, "\n")
			switch line[0] {
			case '+':
				text = f.styles.added.Render(text)
			case '-':
				text = f.styles.removed.Render(text)
			}
			b.WriteString(text)
			b.WriteByte('\n')
		}
	}
	if len(r.Unchecked) > 0 {
		fmt.Fprintf(&b, "  %s\n", f.styles.muted.Render(
			fmt.Sprintf("%d record(s) after the last expect", len(r.Unchecked))))
	}

	_, err := io.WriteString(f.writer, b.String())
	return err
}

// FormatError writes a scenario that could not be loaded or run.
func (f *Formatter) FormatError(name string, err error) error {
	if f.json {
		return f.encode(map[string]string{"scenario": name, "error": err.Error()})
	}
	_, werr := fmt.Fprintf(f.writer, "%s %s: %v\n", f.styles.fail.Render("ERROR"), name, err)
	return werr
}

// FormatSummary writes the pass/fail totals of a batch.
func (f *Formatter) FormatSummary(passed, failed int) error {
	if f.json {
		return f.encode(map[string]int{"passed": passed, "failed": failed})
	}
	style := f.styles.pass
	if failed > 0 {
		style = f.styles.fail
	}
	_, err := fmt.Fprintln(f.writer, style.Render(fmt.Sprintf("%d passed, %d failed", passed, failed)))
	return err
}

// FormatMetrics writes gathered metric samples.
func (f *Formatter) FormatMetrics(samples []SampleDTO) error {
	if f.json {
		return f.encode(samples)
	}
	var b strings.Builder
	b.WriteString(f.styles.header.Render("metrics"))
	b.WriteByte('\n')
	for _, s := range samples {
		fmt.Fprintf(&b, "  %s{type=%q} %g\n", s.Name, s.Type, s.Value)
	}
	_, err := io.WriteString(f.writer, b.String())
	return err
}

// JSON reports whether f writes JSON.
func (f *Formatter) JSON() bool {
	return f.json
}
