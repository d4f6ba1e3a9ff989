package script

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"essaycron/internal/core"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	runnerTemplate = "runner.py.tmpl"
	waiterTemplate = "waiter.py.tmpl"
)

// Renderer emits runner and waiter scripts. Parsed templates are cached per
// instance.
type Renderer struct {
	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewRenderer creates a renderer with an empty template cache.
func NewRenderer() *Renderer {
	return &Renderer{cache: make(map[string]*template.Template)}
}

type runnerData struct {
	Spec      string
	Predicate string
	Command   string
}

type waiterData struct {
	Target                         string
	Year, Month, Day, Hour, Minute int
	Command                        string
	LogPath                        string
}

// RunnerScript renders a script that runs command only on days matching spec.
func (r *Renderer) RunnerScript(spec core.MonthlySpec, command string) ([]byte, error) {
	switch spec.Kind {
	case core.MonthlyDate, core.MonthlyNthWeekday, core.MonthlyLastWeekday, core.MonthlyLastDay:
	default:
		return nil, fmt.Errorf("no predicate for monthly kind %q", spec.Kind)
	}
	return r.render(runnerTemplate, runnerData{
		Spec:      spec.String(),
		Predicate: spec.Predicate(),
		Command:   command,
	})
}

// WaiterScript renders a script that sleeps until target, runs command once
// and appends its output to logPath.
func (r *Renderer) WaiterScript(target time.Time, command, logPath string) ([]byte, error) {
	return r.render(waiterTemplate, waiterData{
		Target:  target.Format("2006-01-02 15:04"),
		Year:    target.Year(),
		Month:   int(target.Month()),
		Day:     target.Day(),
		Hour:    target.Hour(),
		Minute:  target.Minute(),
		Command: command,
		LogPath: logPath,
	})
}

// Clear drops every cached template.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*template.Template)
}

// Cached reports how many templates are parsed.
func (r *Renderer) Cached() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func (r *Renderer) render(name string, data any) ([]byte, error) {
	tmpl, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.cache[name]; ok {
		return tmpl, nil
	}
	tmpl, err := template.New(name).Funcs(template.FuncMap{"py": pyString}).ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	r.cache[name] = tmpl
	return tmpl, nil
}

// pyString quotes s as a Python string literal. JSON string escapes are a
// subset of Python's.
func pyString(s string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
