// Package audit appends activity entries to a dossier's log. Entries are
// prepended (newest first) and never edited afterwards.
package audit

import (
	"time"

	"github.com/google/uuid"

	"dossier-engine/internal/model"
)

const SystemOperator = "Sistem"

type Recorder struct {
	Operator string
	Now      func() time.Time
}

func NewRecorder(operator string) *Recorder {
	if operator == "" {
		operator = SystemOperator
	}
	return &Recorder{Operator: operator, Now: time.Now}
}

// Record builds one entry and prepends it to d.Logs. The entry is returned by value.
func (r *Recorder) Record(d *model.Dossier, action, details string, severity model.Severity) model.LogEntry {
	entry := model.LogEntry{
		ID:        "log-" + uuid.NewString(),
		Timestamp: r.now(),
		Operator:  r.Operator,
		Action:    action,
		Details:   details,
		Severity:  severity,
	}
	Prepend(d, entry)
	return entry
}

// Prepend puts an already built entry at the head of d.Logs.
func Prepend(d *model.Dossier, entry model.LogEntry) {
	logs := make([]model.LogEntry, 0, len(d.Logs)+1)
	logs = append(logs, entry)
	d.Logs = append(logs, d.Logs...)
}

// WithOperator returns a recorder that stamps entries with another operator name.
func (r *Recorder) WithOperator(name string) *Recorder {
	if name == "" {
		return r
	}
	return &Recorder{Operator: name, Now: r.Now}
}

func (r *Recorder) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Count returns how many entries in d carry the given action label.
func Count(d *model.Dossier, action string) int {
	n := 0
	for _, e := range d.Logs {
		if e.Action == action {
			n++
		}
	}
	return n
}
