// Package logger implements a per-run in-memory log buffer.
//
// Details are buffered while a run is in progress.
//   - If the run fails, the buffer is replayed and the final error printed.
//   - If it succeeds, the buffer is dropped and one short line is written.
//
// All state lives in a dedicated goroutine fed through a command channel;
// there are no mutexes.
package logger

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"
)

// --- command types ---------------------------------------------------------

type action int

const (
	actBegin action = iota
	actAppend
	actSuccess
	actFlushErr
	actSync
)

type cmd struct {
	act     action
	runID   string
	message string        // for Append
	output  string        // for Success
	err     error         // for FlushErr
	done    chan struct{} // for Sync
	when    time.Time
}

// --- public entry points (they only send to the channel) --------------------

var ch = make(chan cmd, 128)

// Begin enables buffering for runID.
func Begin(runID string) { ch <- cmd{act: actBegin, runID: runID, when: time.Now()} }

// Append adds one detail line to the run's buffer.
func Append(runID, msg string) {
	ch <- cmd{act: actAppend, runID: runID, message: msg, when: time.Now()}
}

// Appendf is Append with formatting; its signature fits the logf callbacks
// the pipeline packages accept.
func Appendf(runID string) func(string, ...any) {
	return func(format string, args ...any) {
		Append(runID, fmt.Sprintf(format, args...))
	}
}

// Success drops the buffer and writes a short success line naming output.
func Success(runID, output string) {
	ch <- cmd{act: actSuccess, runID: runID, output: output, when: time.Now()}
}

// FlushError prints the buffered lines followed by the final error.
func FlushError(runID string, err error) {
	ch <- cmd{act: actFlushErr, runID: runID, err: err, when: time.Now()}
}

// Sync blocks until every command queued before it has been handled.
func Sync() {
	done := make(chan struct{})
	ch <- cmd{act: actSync, done: done}
	<-done
}

// --- start the goroutine ---------------------------------------------------

func init() { go runloop() }

// --- private implementation ------------------------------------------------

func runloop() {
	buffers := make(map[string]*bytes.Buffer)

	for c := range ch {
		switch c.act {
		case actBegin:
			buffers[c.runID] = &bytes.Buffer{}

		case actAppend:
			if b := buffers[c.runID]; b != nil {
				_, _ = b.WriteString(c.when.Format("15:04:05.000 ") + c.message + "\n")
			} else {
				log.Print(c.message) // no buffer, write through
			}

		case actSuccess:
			log.Printf("[%-8.8s][Map] ✔ saved %s", c.runID, c.output)
			delete(buffers, c.runID)

		case actFlushErr:
			if b := buffers[c.runID]; b != nil {
				lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
				for _, ln := range lines {
					if ln != "" {
						log.Print(ln)
					}
				}
				delete(buffers, c.runID)
			}
			log.Printf("[%-8.8s][ERROR] %v", c.runID, c.err)

		case actSync:
			close(c.done)
		}
	}
}
