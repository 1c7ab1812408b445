package mutations

import (
	"context"
	"fmt"

	"dossier-engine/internal/model"
)

type renderProps struct {
	DocumentType model.DocumentType `json:"document_type"`
	Language     model.Language     `json:"language"`
}

type sentProps struct {
	DocumentType model.DocumentType `json:"document_type"`
	Channel      model.Channel      `json:"channel"`
}

func checkDocumentType(t model.DocumentType) []model.CalculationMessage {
	if !t.Valid() {
		return []model.CalculationMessage{critical("UNKNOWN_DOCUMENT", fmt.Sprintf("Unknown document type %q", t))}
	}
	return nil
}

var renderDocument = op[renderProps]{
	check: func(state *State, p *renderProps) []model.CalculationMessage {
		return checkDocumentType(p.DocumentType)
	},
	apply: func(ctx context.Context, state *State, p *renderProps) ([]model.CalculationMessage, error) {
		doc, err := state.Session.Render(ctx, p.DocumentType, p.Language)
		if err != nil {
			return nil, err
		}
		return []model.CalculationMessage{info("DOCUMENT_GENERATED",
			fmt.Sprintf("%s (%s, %d bytes)", doc.Type, doc.Language, len(doc.Body)))}, nil
	},
}

var markDocumentSent = exec(func(ctx context.Context, state *State, p *sentProps) error {
	return state.Session.MarkSent(ctx, p.DocumentType, p.Channel)
}).withCheck(func(state *State, p *sentProps) []model.CalculationMessage {
	return checkDocumentType(p.DocumentType)
})

var setDocumentLanguage = exec(func(ctx context.Context, state *State, p *renderProps) error {
	return state.Session.SetDocLanguage(ctx, p.DocumentType, p.Language)
}).withCheck(func(state *State, p *renderProps) []model.CalculationMessage {
	return checkDocumentType(p.DocumentType)
})
