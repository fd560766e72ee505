// Command verify-export re-reads an export artifact through the record
// parser and checks that the derived columns in the file agree with the
// classifier, that the header is intact, and that rows are newest first.
//
// Usage:
//
//	go run ./cmd/verify-export IoT_TrashRake_Filtered_2024-01-02T03-04-05.csv
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/trashrake-monitor/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: verify-export <export.csv>")
		os.Exit(1)
	}
	os.Exit(run(flag.Arg(0)))
}

func run(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	rows, err := domain.ParseExport(bytes.NewReader(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	fmt.Println("=== Export Round-Trip Verification ===")
	fmt.Println()

	phases := []*phase{
		validateHeader(data),
		validateRowCount(data, rows),
		validateClassification(rows),
		validateOrder(rows),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d\n", len(rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll checks passed.")
		return 0
	}
	fmt.Println("\nVerification FAILED.")
	return 1
}

func validateHeader(data []byte) *phase {
	p := &phase{name: "Header row"}
	first, _, _ := strings.Cut(string(data), "\n")
	want := strings.Join(domain.ExportHeader, ",")
	if got := strings.TrimRight(first, "\r"); got != want {
		p.errorf("header %q, want %q", got, want)
	}
	return p
}

// validateRowCount flags data lines the record parser would drop.
func validateRowCount(data []byte, rows []domain.ExportedRow) *phase {
	p := &phase{name: "Every row parses"}
	sc := bufio.NewScanner(bytes.NewReader(data))
	lines := 0
	for n := 0; sc.Scan(); n++ {
		if n > 0 && strings.TrimSpace(sc.Text()) != "" {
			lines++
		}
	}
	if lines != len(rows) {
		p.errorf("%d data lines but %d parsed records", lines, len(rows))
	}
	return p
}

func validateClassification(rows []domain.ExportedRow) *phase {
	p := &phase{name: "Derived columns match classifier"}
	for _, r := range rows {
		if r.Mismatch() {
			p.errorf("line %d (%s): file has %s/%s/%s, classifier gives %s/%s/%s",
				r.Line, r.Record.Timestamp,
				r.Detection, r.Level, r.Status,
				r.Record.Detection, r.Record.Level, r.Record.Status)
		}
	}
	return p
}

func validateOrder(rows []domain.ExportedRow) *phase {
	p := &phase{name: "Rows newest first"}
	for i := 1; i < len(rows); i++ {
		prev, ok1 := rows[i-1].Record.Time()
		cur, ok2 := rows[i].Record.Time()
		if ok1 && ok2 && cur.After(prev) {
			p.errorf("line %d (%s) is newer than line %d (%s)",
				rows[i].Line, rows[i].Record.Timestamp, rows[i-1].Line, rows[i-1].Record.Timestamp)
		}
	}
	return p
}
