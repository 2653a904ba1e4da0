package form

import (
	"fmt"
	"strings"
)

// Form is the set of values a submission carries to its action URL.
type Form struct {
	Action string
	Fields []Field
	Files  []File
}

type Field struct {
	Name  string
	Value string
}

// File is a file input: Name is the form field name, Path the local file.
type File struct {
	Name string
	Path string
}

// SubmitEvent is a submission of Form. Handlers that take over the
// transfer must call PreventDefault.
type SubmitEvent struct {
	Form *Form

	prevented bool
}

func NewSubmitEvent(f *Form) *SubmitEvent {
	return &SubmitEvent{Form: f}
}

func (e *SubmitEvent) PreventDefault() { e.prevented = true }

func (e *SubmitEvent) DefaultPrevented() bool { return e.prevented }

// ParseField parses "name=value".
func ParseField(s string) (Field, error) {
	name, value, err := splitPair(s)
	if err != nil {
		return Field{}, err
	}
	return Field{Name: name, Value: value}, nil
}

// ParseFile parses "field=path".
func ParseFile(s string) (File, error) {
	name, path, err := splitPair(s)
	if err != nil {
		return File{}, err
	}
	if path == "" {
		return File{}, fmt.Errorf("empty file path in %q", s)
	}
	return File{Name: name, Path: path}, nil
}

func splitPair(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", fmt.Errorf("expected name=value, got %q", s)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("empty name in %q", s)
	}
	return name, value, nil
}
