package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.trai.ch/scribe/internal/core/domain"
	"go.trai.ch/zerr"
)

// ListOptions configuration for the List method.
type ListOptions struct {
	BuildOptions
	// JSON prints the listing as one JSON document.
	JSON bool
}

// TaskInfo describes a task in a listing.
type TaskInfo struct {
	Name         string   `json:"name"`
	Signature    string   `json:"signature"`
	Description  string   `json:"description,omitempty"`
	Dependencies []string `json:"deps,omitempty"`
	Declared     string   `json:"declared_at"`
}

// Listing is what List reports about a build.
type Listing struct {
	Tasks     []TaskInfo                   `json:"tasks"`
	Variables []domain.EnvironmentVariable `json:"variables"`
}

// List builds the script and writes its tasks and variables to w.
func (a *App) List(ctx context.Context, w io.Writer, opts ListOptions) error {
	_, result, err := a.build(ctx, opts.BuildOptions)
	if err != nil {
		return err
	}

	listing := Listing{
		Tasks:     make([]TaskInfo, 0, len(result.Tasks)),
		Variables: result.Variables,
	}
	if listing.Variables == nil {
		listing.Variables = []domain.EnvironmentVariable{}
	}
	for _, t := range result.Tasks {
		listing.Tasks = append(listing.Tasks, TaskInfo{
			Name:         t.Name,
			Signature:    t.Signature(),
			Description:  t.Description,
			Dependencies: t.Dependencies,
			Declared:     t.Pos.String(),
		})
	}

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(listing); err != nil {
			return zerr.Wrap(err, "failed to encode listing")
		}
		return nil
	}

	writeListing(w, listing)
	return nil
}

func writeListing(w io.Writer, listing Listing) {
	if len(listing.Tasks) == 0 {
		_, _ = fmt.Fprintln(w, "No tasks declared.")
	} else {
		width := 0
		for _, t := range listing.Tasks {
			width = max(width, len(t.Name)+len(t.Signature))
		}
		_, _ = fmt.Fprintln(w, "Tasks:")
		for _, t := range listing.Tasks {
			line := fmt.Sprintf("  %-*s", width, t.Name+t.Signature)
			if t.Description != "" {
				line += "  " + t.Description
			}
			if len(t.Dependencies) > 0 {
				line += "  (deps: " + strings.Join(t.Dependencies, ", ") + ")"
			}
			_, _ = fmt.Fprintln(w, strings.TrimRight(line, " "))
		}
	}

	if len(listing.Variables) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "Variables:")
	for _, v := range listing.Variables {
		line := fmt.Sprintf("  %s = %q", v.Name, v.Value)
		if v.Overridden {
			line += " (default " + fmt.Sprintf("%q", v.Default) + ")"
		}
		_, _ = fmt.Fprintln(w, line)
	}
}
