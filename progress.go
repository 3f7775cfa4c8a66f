package bookpress

import (
	"fmt"
	"io"
	"sync"
)

// Progress protocol records. Each record is one line on the wire.
const (
	progressTotalPrefix = "PDFTOTAL"
	progressPagePrefix  = "PDFPAGE"
	progressDone        = "PDFDONE"
)

// ProgressReporter emits the machine-readable page protocol:
//
//	PDFTOTAL|<n>            once, before any page is drawn
//	PDFPAGE|<page>|<total>  after each committed page
//	PDFDONE                 once, after the document is written
//
// A reporter with a nil writer is disabled and counts pages silently.
type ProgressReporter struct {
	mu      sync.Mutex
	w       io.Writer
	total   int
	counter int
}

// NewProgressReporter returns a reporter writing to w. Pass nil to count
// pages without emitting the protocol.
func NewProgressReporter(w io.Writer) *ProgressReporter {
	return &ProgressReporter{w: w}
}

// Total announces how many pages the document will contain.
func (r *ProgressReporter) Total(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = n
	if r.w != nil {
		fmt.Fprintf(r.w, "%s|%d\n", progressTotalPrefix, n)
	}
}

// Page records one committed page.
func (r *ProgressReporter) Page() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counter++
	if r.w != nil {
		fmt.Fprintf(r.w, "%s|%d|%d\n", progressPagePrefix, r.counter, r.total)
	}
}

// Done marks the document as written.
func (r *ProgressReporter) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w != nil {
		fmt.Fprintln(r.w, progressDone)
	}
}

// Count returns the number of committed pages so far.
func (r *ProgressReporter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counter
}
