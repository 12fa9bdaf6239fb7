//go:build !solution

package syncbench

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v2"
)

// Report is the outcome of one scenario.
type Report struct {
	RunID      string `yaml:"run_id"`
	Scenario   string `yaml:"scenario"`
	Kind       string `yaml:"kind"`
	Goroutines int    `yaml:"goroutines"`
	Fair       bool   `yaml:"fair"`

	// Completed and Expected count finished critical sections.
	Completed int64 `yaml:"completed"`
	Expected  int64 `yaml:"expected"`
	// Limit is the allowed number of concurrent holders; zero means unchecked.
	Limit         int64 `yaml:"limit"`
	MaxConcurrent int64 `yaml:"max_concurrent"`
	MaxReaders    int64 `yaml:"max_readers,omitempty"`

	Elapsed    time.Duration `yaml:"elapsed"`
	Violations []string      `yaml:"violations,omitempty"`
}

// OK reports whether no invariant was violated.
func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

func (r *Report) violate(format string, args ...any) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

// observe fills the report from p. Completion is checked only for runs that
// were not interrupted.
func (r *Report) observe(p *probe, runErr error) {
	r.Completed = p.completed.Load()
	r.MaxConcurrent = p.max.Load()

	if r.Limit > 0 && r.MaxConcurrent > r.Limit {
		r.violate("%d goroutines inside at once, limit %d", r.MaxConcurrent, r.Limit)
	}
	if runErr == nil && r.Completed != r.Expected {
		r.violate("completed %d sections, want %d", r.Completed, r.Expected)
	}
}

// Форматы вывода отчёта.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// WriteReports prints reports in the given format.
func WriteReports(w io.Writer, format string, reports []Report) error {
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(reports)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatText, "":
	default:
		return fmt.Errorf("unknown report format %q", format)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tKIND\tFAIR\tGOROUTINES\tCOMPLETED\tMAX\tLIMIT\tELAPSED\tSTATUS")
	for _, r := range reports {
		status := "ok"
		if !r.OK() {
			status = "FAIL: " + strings.Join(r.Violations, "; ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%v\t%d\t%d/%d\t%d\t%d\t%s\t%s\n",
			r.Scenario, r.Kind, r.Fair, r.Goroutines,
			r.Completed, r.Expected, r.MaxConcurrent, r.Limit,
			r.Elapsed.Round(time.Microsecond), status)
	}
	return tw.Flush()
}
