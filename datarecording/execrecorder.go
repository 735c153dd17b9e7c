package datarecording

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExecInfo is one property of a program execution.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecTableName is the table that execution properties are recorded in.
const ExecTableName = "exec_info"

const execTimeFormat = "2006-01-02 15:04:05"

// ExecRecorder records how the program was started and when it ended.
type ExecRecorder struct {
	recorder Recorder
	entries  []ExecInfo
	now      func() time.Time
}

// NewExecRecorder creates the execution table in the given recorder.
func NewExecRecorder(recorder Recorder) (*ExecRecorder, error) {
	e := &ExecRecorder{
		recorder: recorder,
		now:      time.Now,
	}

	if err := recorder.CreateTable(ExecTableName, ExecInfo{}); err != nil {
		return nil, err
	}

	return e, nil
}

// Start captures the start time, the command line and the executable
// location.
func (e *ExecRecorder) Start() {
	e.entries = append(e.entries,
		ExecInfo{"Start Time", e.now().Format(execTimeFormat)},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	if ex, err := os.Executable(); err == nil {
		e.entries = append(e.entries, ExecInfo{"Path", filepath.Dir(ex)})
	}
}

// AddProperty records an extra property, such as the random seed.
func (e *ExecRecorder) AddProperty(property, value string) {
	e.entries = append(e.entries, ExecInfo{property, value})
}

// Finish records the end time and flushes everything.
func (e *ExecRecorder) Finish() error {
	e.entries = append(e.entries,
		ExecInfo{"End Time", e.now().Format(execTimeFormat)})

	for _, entry := range e.entries {
		if err := e.recorder.InsertData(ExecTableName, entry); err != nil {
			return err
		}
	}

	e.entries = nil

	return e.recorder.Flush()
}
