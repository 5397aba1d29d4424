// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/Masterminds/sprig/v3"
)

// Renderer serializes a report.
type Renderer interface {
	Render(w io.Writer, r *Report) error
	// Extension returns the file extension of the rendered document, including the dot.
	Extension() string
}

var renderers = map[string]func() Renderer{
	"html": func() Renderer { return NewHTMLRenderer() },
	"json": func() Renderer { return JSONRenderer{} },
}

// Formats returns the names of all supported output formats.
func Formats() []string {
	return slices.Sorted(maps.Keys(renderers))
}

// NewRenderer returns the renderer for the named format.
func NewRenderer(format string) (Renderer, error) {
	fn, ok := renderers[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unsupported report format %q, expected one of %s", format, strings.Join(Formats(), ", "))
	}
	return fn(), nil
}

//go:embed report.html.tmpl
var htmlTemplate string

// HTMLRenderer renders a report as a self-contained Bootstrap page.
type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		tmpl: template.Must(template.New("report").Funcs(sprig.HtmlFuncMap()).Parse(htmlTemplate)),
	}
}

func (h *HTMLRenderer) Render(w io.Writer, r *Report) error {
	if err := h.tmpl.Execute(w, r); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return nil
}

func (h *HTMLRenderer) Extension() string { return ".html" }

// JSONRenderer renders a report as indented JSON.
type JSONRenderer struct{}

func (JSONRenderer) Render(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to render json report: %w", err)
	}
	return nil
}

func (JSONRenderer) Extension() string { return ".json" }
