// Package consoletest provides a ConsoleInterface that records output instead
// of printing it.
package consoletest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/diillson/fleetburn-go/internal/shared/types"
)

// Recorder captures every log line by level.
type Recorder struct {
	mu       sync.Mutex
	Infos    []string
	Warnings []string
	Errors   []string
	Success  []string
	Output   strings.Builder
	Bars     []types.BudgetBar

	// EnterErr is returned by WaitForEnter; Entered counts the calls.
	EnterErr error
	Entered  int
}

var _ types.ConsoleInterface = (*Recorder)(nil)

func (r *Recorder) Print(a ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(&r.Output, a...)
}

func (r *Recorder) Printf(format string, a ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(&r.Output, format, a...)
}

func (r *Recorder) Println(a ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(&r.Output, a...)
}

func (r *Recorder) LogInfo(format string, a ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Infos = append(r.Infos, fmt.Sprintf(format, a...))
}

func (r *Recorder) LogWarning(format string, a ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, a...))
}

func (r *Recorder) LogError(format string, a ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, fmt.Sprintf(format, a...))
}

func (r *Recorder) LogSuccess(format string, a ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Success = append(r.Success, fmt.Sprintf(format, a...))
}

func (r *Recorder) Status(string) types.StatusHandle { return nopHandle{} }

func (r *Recorder) ProgressWithTotal(int) types.ProgressHandle { return nopHandle{} }

func (r *Recorder) CreateTable() types.TableInterface { return &table{} }

func (r *Recorder) DisplayBudgetBars(bars []types.BudgetBar) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Bars = append(r.Bars, bars...)
}

func (r *Recorder) WaitForEnter(ctx context.Context, _ string) error {
	r.mu.Lock()
	r.Entered++
	err := r.EnterErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return ctx.Err()
}

// HasWarning reports whether any warning contains substr.
func (r *Recorder) HasWarning(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

type nopHandle struct{}

func (nopHandle) Update(string) {}
func (nopHandle) Increment()    {}
func (nopHandle) Stop()         {}

type table struct {
	columns []string
	rows    [][]string
}

func (t *table) AddColumn(name string, _ ...interface{}) {
	t.columns = append(t.columns, name)
}

func (t *table) AddRow(cells ...interface{}) {
	row := make([]string, len(cells))
	for i, c := range cells {
		row[i] = fmt.Sprint(c)
	}
	t.rows = append(t.rows, row)
}

func (t *table) Render() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.columns, " | "))
	b.WriteString("\n")
	for _, row := range t.rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	return b.String()
}
