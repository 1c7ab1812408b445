// Package docs defines what a document renderer receives and returns.
package docs

import (
	"context"

	"dossier-engine/internal/model"
)

type Document struct {
	Type        model.DocumentType `json:"type"`
	Language    model.Language     `json:"language"`
	Title       string             `json:"title"`
	ContentType string             `json:"contentType"`
	Body        []byte             `json:"body"`
}

// Renderer turns a dossier snapshot into a document. The snapshot is a
// private copy; renderers must not expect later changes to show up in it.
//
//go:generate mockgen -destination=mocks/mock_renderer.go -source=docs.go Renderer
type Renderer interface {
	Render(ctx context.Context, docType model.DocumentType, snapshot *model.Dossier, lang model.Language) (Document, error)
}
