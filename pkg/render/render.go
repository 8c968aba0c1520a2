// Package render records template executions so tests can assert which
// templates an endpoint rendered and with what data.
package render

import (
	"html/template"
	"io"
	"sync"
)

// Event is one recorded template execution.
type Event struct {
	// Name is the executed template's name.
	Name string
	// Data is the value the template was executed with.
	Data any
}

// Recorder collects template render events.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record notes a template execution.
func (r *Recorder) Record(name string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Name: name, Data: data})
}

// Events returns all recorded executions in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the names of rendered templates in order.
func (r *Recorder) Names() []string {
	events := r.Events()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}
	return names
}

// Rendered reports whether a template with the given name was executed.
func (r *Recorder) Rendered(name string) bool {
	for _, e := range r.Events() {
		if e.Name == name {
			return true
		}
	}
	return false
}

// Last returns the most recent execution, if any.
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}

// Reset discards recorded events. Suites call this between tests.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Template wraps html/template.Template and reports every execution to a
// Recorder. A nil recorder leaves rendering untouched, so application code
// can hold a *render.Template in all environments.
type Template struct {
	tmpl *template.Template
	rec  *Recorder
}

// Instrument wraps a parsed template with a recorder.
func Instrument(t *template.Template, rec *Recorder) *Template {
	return &Template{tmpl: t, rec: rec}
}

// Execute renders the template, recording the execution.
func (t *Template) Execute(w io.Writer, data any) error {
	if t.rec != nil {
		t.rec.Record(t.tmpl.Name(), data)
	}
	return t.tmpl.Execute(w, data)
}

// ExecuteTemplate renders the named associated template, recording the
// execution.
func (t *Template) ExecuteTemplate(w io.Writer, name string, data any) error {
	if t.rec != nil {
		t.rec.Record(name, data)
	}
	return t.tmpl.ExecuteTemplate(w, name, data)
}

// Unwrap returns the underlying template for parsing or lookups.
func (t *Template) Unwrap() *template.Template {
	return t.tmpl
}
