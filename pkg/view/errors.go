package view

import (
	"errors"

	"github.com/CTAG07/layerview/pkg/store"
)

var (
	// ErrTemplateNotFound is returned when a layout, page or partial cannot be loaded.
	ErrTemplateNotFound = store.ErrNotFound

	// ErrTemplateEvaluation is returned when a body cannot be parsed or one of
	// its snippets fails. The wrapped error is a *snippet.Error.
	ErrTemplateEvaluation = errors.New("template evaluation failed")
)
