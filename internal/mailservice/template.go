package mailservice

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sync"
)

//go:embed templates/*
var templateFS embed.FS

var templateCache sync.Map

func NewTemplate() *Template {
	return &Template{}
}

func loadTemplate(name string) (*template.Template, error) {
	if t, ok := templateCache.Load(name); ok {
		return t.(*template.Template), nil
	}

	t, err := template.New("email").ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("could not parse template: %w", err)
	}

	templateCache.Store(name, t)
	return t, nil
}

// ParseTemplate renders the subject, plainBody and htmlBody blocks of the named template.
func (tp *Template) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	t, err := loadTemplate(name)
	if err != nil {
		return nil, nil, nil, err
	}

	var out [3]*bytes.Buffer
	for i, block := range []string{"subject", "plainBody", "htmlBody"} {
		out[i] = new(bytes.Buffer)
		err = t.ExecuteTemplate(out[i], block, data)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	return out[0], out[1], out[2], nil
}
