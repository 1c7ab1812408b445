package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dossier-engine/internal/apperr"
	"dossier-engine/internal/docs"
	"dossier-engine/internal/model"
)

const (
	ActionDocGenerated = "Generisanje Dokumenta"
	ActionDocFailed    = "Greška Generisanja"
	ActionDocSent      = "Slanje Dokumenta"
	ActionDocLanguage  = "Jezik Dokumenta"
)

var (
	ErrUnknownDocument = errors.New("unknown document type")
	ErrUnknownChannel  = errors.New("unknown delivery channel")
)

var channelLabels = map[model.Channel]string{
	model.ChannelEmail: "e-mail",
	model.ChannelViber: "Viber",
	model.ChannelPrint: "štampu",
}

// Render hands a snapshot to the renderer and, once it returns, marks the
// document generated. lang "" selects the document's configured language.
func (s *Session) Render(ctx context.Context, docType model.DocumentType, lang model.Language) (docs.Document, error) {
	if !docType.Valid() {
		return docs.Document{}, apperr.New(apperr.CodeValidation, "session.render", string(docType), ErrUnknownDocument)
	}
	if s.deps.Renderer == nil {
		return docs.Document{}, apperr.New(apperr.CodeInternal, "session.render", "no renderer configured", nil)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return docs.Document{}, ErrClosed
	}
	if lang == "" {
		lang = s.d.DocSettings[docType]
	}
	if lang == "" {
		lang = s.d.Language
	}
	snapshot := s.d.Clone()
	s.mu.Unlock()

	doc, err := s.deps.Renderer.Render(ctx, docType, snapshot, lang)
	if err != nil {
		_ = s.mutate(ctx, func(d *model.Dossier) error {
			s.audit.Record(d, ActionDocFailed, fmt.Sprintf("Dokument %s nije generisan: %v", docType, err), model.SeverityDanger)
			return nil
		})
		return docs.Document{}, apperr.External("session.render", err)
	}

	err = s.mutate(ctx, func(d *model.Dossier) error {
		st := d.DocumentTracker[docType]
		st.Generated = true
		st.GeneratedAt = s.deps.Now().Format(time.RFC3339)
		d.DocumentTracker = withState(d.DocumentTracker, docType, st)
		s.audit.Record(d, ActionDocGenerated, fmt.Sprintf("%s generisan na jeziku: %s", docType, lang), model.SeveritySuccess)
		return nil
	})
	if err != nil {
		return docs.Document{}, err
	}
	return doc, nil
}

// MarkSent records that a document went out through one channel.
func (s *Session) MarkSent(ctx context.Context, docType model.DocumentType, ch model.Channel) error {
	if !docType.Valid() {
		return apperr.New(apperr.CodeValidation, "session.mark_sent", string(docType), ErrUnknownDocument)
	}
	label, ok := channelLabels[ch]
	if !ok {
		return apperr.New(apperr.CodeValidation, "session.mark_sent", string(ch), ErrUnknownChannel)
	}
	return s.mutate(ctx, func(d *model.Dossier) error {
		st := d.DocumentTracker[docType]
		switch ch {
		case model.ChannelEmail:
			st.SentEmail = true
		case model.ChannelViber:
			st.SentViber = true
		case model.ChannelPrint:
			st.SentPrint = true
		}
		d.DocumentTracker = withState(d.DocumentTracker, docType, st)
		s.audit.Record(d, ActionDocSent, fmt.Sprintf("Dokument %s je poslat na %s.", docType, label), model.SeverityInfo)
		return nil
	})
}

// SetDocLanguage overrides the language of a single document type.
func (s *Session) SetDocLanguage(ctx context.Context, docType model.DocumentType, lang model.Language) error {
	if !docType.Valid() {
		return apperr.New(apperr.CodeValidation, "session.set_doc_language", string(docType), ErrUnknownDocument)
	}
	if lang == "" {
		return apperr.Validation("session.set_doc_language", "language is required")
	}
	return s.mutate(ctx, func(d *model.Dossier) error {
		settings := make(map[model.DocumentType]model.Language, len(d.DocSettings))
		for k, v := range d.DocSettings {
			settings[k] = v
		}
		settings[docType] = lang
		d.DocSettings = settings
		s.audit.Record(d, ActionDocLanguage, fmt.Sprintf("Jezik dokumenta %s promenjen u %s.", docType, lang), model.SeverityInfo)
		return nil
	})
}

// ItineraryText is the plain-text trip plan operators share with customers.
func (s *Session) ItineraryText(agency string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return docs.Itinerary(s.d, agency)
}

func withState(m map[model.DocumentType]model.DocumentState, t model.DocumentType, st model.DocumentState) map[model.DocumentType]model.DocumentState {
	out := make(map[model.DocumentType]model.DocumentState, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[t] = st
	return out
}
