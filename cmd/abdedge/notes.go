package main

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/brunoabdon/abdedge/conditional"
	"github.com/brunoabdon/abdedge/resource"
	"github.com/brunoabdon/abdedge/resource/memstore"
)

const notesPath = "/notes"

type note struct {
	ID    int    `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Body  string `json:"body,omitempty" yaml:"body,omitempty"`
}

func withID(n note, id int) note {
	n.ID = id
	return n
}

var errMissingTitle = errors.New("title is required")

func validateNote(n note) error {
	if strings.TrimSpace(n.Title) == "" {
		return errMissingTitle
	}
	return nil
}

func newNotesResource(negotiator *conditional.Negotiator, logger *slog.Logger) *resource.Resource[int, note] {
	store := memstore.New(withID, memstore.WithValidation(validateNote))
	return resource.New[int, note](notesPath, store, resource.IntKey, negotiator, resource.WithLogger(logger))
}
