// Package codegen renders a discovered action sequence as a standalone Go
// program so a finding can be replayed outside the evolution engine.
package codegen

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/uievolve/uievolve/pkg/catalog"
	"github.com/uievolve/uievolve/pkg/errors"
	"github.com/uievolve/uievolve/pkg/genome"
)

const programTemplate = `// Code generated by uievolve. DO NOT EDIT.
//
// Replays the action sequence {{.ChromosomeID}} (fitness {{printf "%.3f" .Fitness}})
// against {{.StartURL}}.
package main

import (
	"context"
	"log"
	"time"

	"github.com/chromedp/chromedp"
)

func main() {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()
	ctx, cancel := context.WithTimeout(browserCtx, 60*time.Second)
	defer cancel()

	if err := chromedp.Run(ctx,
		chromedp.Navigate({{printf "%q" .StartURL}}),
{{- range .Steps}}
		// {{.Comment}}
		{{.Code}},
{{- end}}
	); err != nil {
		log.Fatalf("replay failed: %v", err)
	}
	log.Println("replay completed")
}
`

type step struct {
	Comment string
	Code    string
}

type programData struct {
	ChromosomeID string
	Fitness      float64
	StartURL     string
	Steps        []step
}

// Generator renders replay programs for evolved sequences.
type Generator struct {
	tmpl *template.Template
}

// New compiles the program template.
func New() *Generator {
	return &Generator{
		tmpl: template.Must(template.New("replay").Parse(programTemplate)),
	}
}

// Render writes a standalone replay program for the chromosome to w.
func (g *Generator) Render(w io.Writer, chromosome *genome.Chromosome, startURL string) error {
	if chromosome == nil {
		return errors.New(errors.InvalidInput, "cannot render a nil chromosome")
	}
	fitness, _ := chromosome.Fitness()
	data := programData{
		ChromosomeID: chromosome.ID(),
		Fitness:      fitness,
		StartURL:     startURL,
		Steps:        make([]step, 0, len(chromosome.Actions())),
	}
	for _, action := range chromosome.Actions() {
		code, err := actionCode(action)
		if err != nil {
			return err
		}
		data.Steps = append(data.Steps, step{Comment: action.String(), Code: code})
	}
	return g.tmpl.Execute(w, data)
}

// WriteFile renders the replay program to path, creating parent
// directories as needed.
func (g *Generator) WriteFile(path string, chromosome *genome.Chromosome, startURL string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.Unknown, "creating output directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "creating output file")
	}
	defer f.Close()
	return g.Render(f, chromosome, startURL)
}

// actionCode maps one catalog action to the chromedp call that performs it.
func actionCode(a catalog.Action) (string, error) {
	query, textSearch := a.Target.Query()
	by := "chromedp.ByQuery"
	if textSearch {
		by = "chromedp.BySearch"
	}
	switch a.Kind {
	case catalog.Click:
		return fmt.Sprintf("chromedp.Click(%q, %s)", query, by), nil
	case catalog.Fill:
		return fmt.Sprintf("chromedp.SetValue(%q, %q, %s)", query, a.Value, by), nil
	case catalog.Select:
		return fmt.Sprintf("chromedp.SetValue(%q, %q, %s)", query, a.Value, by), nil
	case catalog.Scroll:
		if a.Target.Identifiable() {
			return fmt.Sprintf("chromedp.ScrollIntoView(%q, %s)", query, by), nil
		}
		return `chromedp.Evaluate("window.scrollBy(0, window.innerHeight)", nil)`, nil
	}
	return "", errors.WithFields(
		errors.New(errors.InvalidInput, "unsupported action kind"),
		errors.Fields{"kind": string(a.Kind)})
}

// SuggestedFilename builds a file name from the chromosome id, safe for
// any filesystem.
func SuggestedFilename(chromosome *genome.Chromosome) string {
	id := strings.ReplaceAll(chromosome.ID(), "-", "")
	if len(id) > 12 {
		id = id[:12]
	}
	return fmt.Sprintf("replay_%s.go", id)
}
