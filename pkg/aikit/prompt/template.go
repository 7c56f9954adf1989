// Package prompt holds the assistant's prompt templates. Templates are
// text/template files with a small metadata header:
//
//	{{/* @description: Plans how to answer a user query */}}
//	{{/* @var: Message (required) - The user's question */}}
//	{{/* @var: Focus - Extra guidance [default:general] */}}
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	aierrors "github.com/mmichie/greenie/pkg/aikit/errors"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Template is a parsed prompt template
type Template struct {
	Name        string
	Description string
	Variables   []Variable
	content     string
	template    *template.Template
}

// Variable describes a template variable
type Variable struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     string `json:"default,omitempty"`
}

// Registry is a concurrency-safe set of named templates
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
	funcs     template.FuncMap
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]*Template),
		funcs: template.FuncMap{
			"lower":  strings.ToLower,
			"upper":  strings.ToUpper,
			"trim":   strings.TrimSpace,
			"indent": indent,
			"dedent": dedent,
		},
	}
}

// NewDefaultRegistry returns a registry loaded with the embedded templates
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := r.LoadFromFS(templateFS, "templates/*.tmpl"); err != nil {
		return nil, err
	}
	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the shared registry of embedded templates
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = NewDefaultRegistry()
	})
	return defaultRegistry, defaultErr
}

// Register parses and adds a template
func (r *Registry) Register(tmpl *Template) error {
	if tmpl.Name == "" {
		return aierrors.New("prompt", "register", fmt.Errorf("template name cannot be empty"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[tmpl.Name]; exists {
		return aierrors.New("prompt", "register", fmt.Errorf("template %q already registered", tmpl.Name))
	}

	parsed, err := template.New(tmpl.Name).Funcs(r.funcs).Option("missingkey=zero").Parse(tmpl.content)
	if err != nil {
		return aierrors.New("prompt", "register", fmt.Errorf("failed to parse template %q: %w", tmpl.Name, err))
	}

	tmpl.template = parsed
	r.templates[tmpl.Name] = tmpl
	return nil
}

// Get looks up a template by name
func (r *Registry) Get(name string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tmpl, ok := r.templates[name]
	if !ok {
		return nil, aierrors.New("prompt", "get", fmt.Errorf("template %q not found", name))
	}
	return tmpl, nil
}

// Names returns the registered template names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render executes the named template with values
func (r *Registry) Render(name string, values map[string]any) (string, error) {
	tmpl, err := r.Get(name)
	if err != nil {
		return "", err
	}
	return tmpl.ExecuteMap(values)
}

// LoadFromFS registers every file matching pattern; the file's base name
// without extension becomes the template name.
func (r *Registry) LoadFromFS(fsys fs.FS, pattern string) error {
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return aierrors.New("prompt", "load", fmt.Errorf("failed to glob pattern %q: %w", pattern, err))
	}

	for _, match := range matches {
		content, err := fs.ReadFile(fsys, match)
		if err != nil {
			return aierrors.New("prompt", "load", fmt.Errorf("failed to read %q: %w", match, err))
		}

		name := strings.TrimSuffix(path.Base(match), path.Ext(match))
		if err := r.Register(parseTemplate(name, string(content))); err != nil {
			return err
		}
	}

	return nil
}

// ExecuteMap renders the template, applying declared defaults and
// rejecting missing required variables.
func (t *Template) ExecuteMap(values map[string]any) (string, error) {
	data := make(map[string]any, len(values)+len(t.Variables))
	for k, v := range values {
		data[k] = v
	}

	for _, v := range t.Variables {
		if val, ok := data[v.Name]; ok && val != nil {
			continue
		}
		switch {
		case v.Default != "":
			data[v.Name] = v.Default
		case v.Required:
			return "", aierrors.New("prompt", "execute", fmt.Errorf("template %q: missing required variable %q", t.Name, v.Name))
		}
	}

	return t.execute(data)
}

func (t *Template) execute(data any) (string, error) {
	if t.template == nil {
		return "", aierrors.New("prompt", "execute", fmt.Errorf("template %q not parsed", t.Name))
	}

	var buf bytes.Buffer
	if err := t.template.Execute(&buf, data); err != nil {
		return "", aierrors.New("prompt", "execute", fmt.Errorf("failed to execute template %q: %w", t.Name, err))
	}
	return strings.TrimSpace(buf.String()), nil
}

// parseTemplate strips the metadata header and records what it declares
func parseTemplate(name, content string) *Template {
	tmpl := &Template{
		Name:        name,
		Description: fmt.Sprintf("Template for %s", name),
		content:     content,
	}

	lines := strings.Split(content, "\n")
	start := 0
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "{{/*") || !strings.HasSuffix(line, "*/}}") {
			break
		}

		meta := strings.TrimSpace(line[4 : len(line)-4])
		switch {
		case strings.HasPrefix(meta, "@description:"):
			tmpl.Description = strings.TrimSpace(strings.TrimPrefix(meta, "@description:"))
		case strings.HasPrefix(meta, "@var:"):
			if v, ok := parseVariable(strings.TrimSpace(strings.TrimPrefix(meta, "@var:"))); ok {
				tmpl.Variables = append(tmpl.Variables, v)
			}
		}
		start = i + 1
	}

	if start > 0 {
		tmpl.content = strings.Join(lines[start:], "\n")
	}
	return tmpl
}

// parseVariable reads "name (required) - description [default:x]"
func parseVariable(def string) (Variable, bool) {
	namePart, description, ok := strings.Cut(def, " - ")
	if !ok {
		return Variable{}, false
	}

	v := Variable{Name: strings.TrimSpace(namePart), Description: strings.TrimSpace(description)}
	if name, found := strings.CutSuffix(v.Name, "(required)"); found {
		v.Name = strings.TrimSpace(name)
		v.Required = true
	}

	if idx := strings.Index(v.Description, "[default:"); idx >= 0 {
		if end := strings.Index(v.Description[idx:], "]"); end > 0 {
			v.Default = strings.TrimSpace(v.Description[idx+len("[default:") : idx+end])
			v.Description = strings.TrimSpace(v.Description[:idx] + v.Description[idx+end+1:])
		}
	}

	return v, true
}

func indent(spaces int, text string) string {
	prefix := strings.Repeat(" ", spaces)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func dedent(text string) string {
	lines := strings.Split(text, "\n")

	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent == -1 || n < minIndent {
			minIndent = n
		}
	}
	if minIndent <= 0 {
		return text
	}

	for i, line := range lines {
		if len(line) >= minIndent {
			lines[i] = line[minIndent:]
		}
	}
	return strings.Join(lines, "\n")
}
