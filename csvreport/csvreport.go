// Package csvreport formats the fixed CSV schema of spec.md §6, used by
// sample workloads so their output is reproducible and diffable across
// runs and policies. It is not part of the core: the core never imports
// it, and it imports nothing from the core; callers (simkernel, on each
// job completion) fill in Row values themselves.
package csvreport

import (
	"fmt"
	"io"
)

// Header is the fixed CSV header row of spec.md §6.
const Header = "CSV_HEADER,timestamp,task_id,activation,response_time,deadline_met,lateness,period,deadline,weight"

// Row is one observed activation, in the units spec.md §6 fixes
// (milliseconds for every time-like field).
type Row struct {
	TimestampMS   int64
	TaskID        int
	Activation    int
	ResponseMS    int64
	DeadlineMetMS int64 // absolute deadline, ms, for lateness computation
	CompletionMS  int64 // absolute completion time, ms
	PeriodMS      int64
	DeadlineMS    int64 // relative deadline (period-equivalent) for the row's deadline column
	Weight        int
}

// deadlineMet and lateness derive the two computed columns per spec.md
// §6: "deadline_met = 1 iff completion <= absolute deadline; lateness =
// max(0, completion - deadline) when missed, 0 when met."
func (r Row) deadlineMet() bool { return r.CompletionMS <= r.DeadlineMetMS }

func (r Row) lateness() int64 {
	if r.deadlineMet() {
		return 0
	}
	return r.CompletionMS - r.DeadlineMetMS
}

// WriteHeader writes the fixed header line.
func WriteHeader(w io.Writer) error {
	_, err := fmt.Fprintln(w, Header)
	return err
}

// WriteRow writes one CSV row in the fixed format:
// CSV,<ms>,<1..N>,<n>,<ms>,<0|1>,<signed ms>,<ms>,<ms>,<int>
func WriteRow(w io.Writer, r Row) error {
	met := 0
	if r.deadlineMet() {
		met = 1
	}
	_, err := fmt.Fprintf(w, "CSV,%d,%d,%d,%d,%d,%d,%d,%d,%d\n",
		r.TimestampMS, r.TaskID, r.Activation, r.ResponseMS, met,
		r.lateness(), r.PeriodMS, r.DeadlineMS, r.Weight)
	return err
}
