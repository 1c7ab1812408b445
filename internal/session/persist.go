package session

import (
	"context"
	"fmt"
	"strings"

	"dossier-engine/internal/apperr"
	"dossier-engine/internal/audit"
	"dossier-engine/internal/model"
	"dossier-engine/internal/store"
)

const (
	ActionFirstSave  = "Čuvanje Dosijea"
	ActionResave     = "Izmena Dosijea"
	ActionSaveFailed = "Neuspelo Čuvanje"
)

type SaveResult struct {
	ResCode string `json:"resCode"`
	First   bool   `json:"first"`
}

// Save is the explicit persistence path. The first successful save assigns
// the reservation number; a number obtained for a failed save is kept and
// reused by the next attempt instead of drawing a new one.
func (s *Session) Save(ctx context.Context) (SaveResult, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return SaveResult{}, ErrClosed
	}
	if strings.TrimSpace(s.d.Booker.FullName) == "" {
		s.mu.Unlock()
		return SaveResult{}, apperr.Validation("session.save", "Molimo unesite podatke nosioca putovanja pre čuvanja.")
	}
	first := s.d.ResCode == nil
	number := s.pendingResCode
	s.mu.Unlock()

	if s.deps.Store == nil {
		return SaveResult{}, apperr.New(apperr.CodeInternal, "session.save", "no store configured", nil)
	}

	if first && number == "" {
		if s.deps.Numbering == nil {
			return SaveResult{}, apperr.New(apperr.CodeInternal, "session.save", "no numbering service configured", nil)
		}
		n, err := s.deps.Numbering.Next(ctx)
		if err != nil {
			s.recordSaveFailure(fmt.Sprintf("Dodela broja rezervacije nije uspela: %v", err))
			s.log.Error("reservation numbering failed", "error", err)
			return SaveResult{}, apperr.External("session.save", err)
		}
		number = n
		s.mu.Lock()
		s.pendingResCode = n
		s.mu.Unlock()
	}

	s.mu.Lock()
	candidate := s.d.Clone()
	var entry model.LogEntry
	if first {
		candidate.ResCode = &number
		entry = s.audit.Record(candidate, ActionFirstSave,
			fmt.Sprintf("Dossier je prvi put sačuvan u bazu. Dodeljen broj: %s", number), model.SeveritySuccess)
	} else {
		entry = s.audit.Record(candidate, ActionResave, "Podaci o dosijeu su ažurirani u bazi.", model.SeverityInfo)
	}
	blob, err := store.Encode(candidate)
	key := candidate.CisCode
	s.mu.Unlock()
	if err != nil {
		return SaveResult{}, apperr.New(apperr.CodeInternal, "session.save", "encode dossier", err)
	}

	if err := s.deps.Store.Save(ctx, key, blob); err != nil {
		s.recordSaveFailure(fmt.Sprintf("Greška pri čuvanju u bazu: %v", err))
		s.log.Error("dossier save failed", "error", err, "first", first)
		return SaveResult{}, apperr.External("session.save", err)
	}

	s.mu.Lock()
	if first {
		rc := number
		s.d.ResCode = &rc
		s.pendingResCode = ""
	}
	audit.Prepend(s.d, entry)
	res := SaveResult{ResCode: *s.d.ResCode, First: first}
	s.mu.Unlock()

	s.log.Info("dossier saved", "resCode", res.ResCode, "first", first)
	return res, nil
}

// ResCode returns the reservation number, or "" while unnumbered.
func (s *Session) ResCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d.ResCode == nil {
		return ""
	}
	return *s.d.ResCode
}

func (s *Session) recordSaveFailure(details string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.audit.Record(s.d, ActionSaveFailed, details, model.SeverityDanger)
}
