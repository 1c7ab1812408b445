package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"dossier-engine/internal/apperr"
	"dossier-engine/internal/model"
)

const (
	ActionBookerEdited       = "Izmena Ugovarača"
	ActionPassengerAdded     = "Dodavanje Putnika"
	ActionPassengerEdited    = "Izmena Putnika"
	ActionPassengerRemoved   = "Brisanje Putnika"
	ActionBookerCopied       = "Kopiranje Podataka"
	ActionCustomerType       = "Tip Klijenta"
	ActionPermissionDenied   = "Odbijena Izmena"
	ActionLanguage           = "Jezik Dokumentacije"
	ActionNotes              = "Izmena Napomena"
	ActionInsuranceEdited    = "Izmena Osiguranja"
	ActionInsuranceConfirmed = "Potvrda Osiguranja"
)

var (
	ErrPermission          = errors.New("operator level too low")
	ErrInsuranceSigned     = errors.New("insurance confirmation already signed")
	ErrUnknownNationality  = errors.New("unknown nationality")
	ErrInvalidTravelerType = errors.New("invalid traveler type")
)

var customerTypeLabels = map[model.CustomerType]string{
	model.CustomerIndividual: "Individualni",
	model.CustomerSubagent:   "Subagent",
	model.CustomerLegal:      "Pravno Lice",
}

func (s *Session) SetBooker(ctx context.Context, b model.Booker) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		d.Booker = b
		s.audit.Record(d, ActionBookerEdited, "Podaci ugovarača su ažurirani.", model.SeverityInfo)
		return nil
	})
}

// AddPassenger appends p, or an empty adult row when p is the zero value.
func (s *Session) AddPassenger(ctx context.Context, p model.Passenger) (model.Passenger, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Type == "" {
		p.Type = model.TravelerAdult
	}
	if err := s.validatePassenger("session.add_passenger", p); err != nil {
		return model.Passenger{}, err
	}
	err := s.mutate(ctx, func(d *model.Dossier) error {
		if _, exists := model.FindByID(d.Passengers, p.ID); exists {
			return apperr.Conflict("session.add_passenger", p.ID, nil)
		}
		d.Passengers = model.Append(d.Passengers, p)
		s.audit.Record(d, ActionPassengerAdded, "Novi prazan red za putnika je dodat u listu.", model.SeverityInfo)
		return nil
	})
	if err != nil {
		return model.Passenger{}, err
	}
	return p, nil
}

// UpdatePassenger replaces the dossier-level passenger. Copies already held
// by trip items are left alone.
func (s *Session) UpdatePassenger(ctx context.Context, p model.Passenger) error {
	if err := s.validatePassenger("session.update_passenger", p); err != nil {
		return err
	}
	return s.mutate(ctx, func(d *model.Dossier) error {
		next, err := model.ReplaceByID(d.Passengers, p.ID, func(model.Passenger) (model.Passenger, error) {
			return p, nil
		})
		if err != nil {
			return apperr.NotFound("session.update_passenger", p.ID, err)
		}
		d.Passengers = next
		s.audit.Record(d, ActionPassengerEdited, fmt.Sprintf("Podaci putnika %s su izmenjeni.", p.FullName()), model.SeverityInfo)
		return nil
	})
}

func (s *Session) RemovePassenger(ctx context.Context, id string) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		next, removed, err := model.RemoveByID(d.Passengers, id)
		if err != nil {
			return apperr.NotFound("session.remove_passenger", id, err)
		}
		d.Passengers = next
		s.audit.Record(d, ActionPassengerRemoved,
			fmt.Sprintf("Putnik %s %s je uklonjen iz dosijea.", removed.FirstName, removed.LastName), model.SeverityDanger)
		return nil
	})
}

// CopyBookerToPassengers overwrites every passenger's contact block with the booker's.
func (s *Session) CopyBookerToPassengers(ctx context.Context) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		next := make([]model.Passenger, len(d.Passengers))
		for i, p := range d.Passengers {
			p.Address = d.Booker.Address
			p.City = d.Booker.City
			p.Country = d.Booker.Country
			p.Phone = d.Booker.Phone
			p.Email = d.Booker.Email
			next[i] = p
		}
		d.Passengers = next
		s.audit.Record(d, ActionBookerCopied, "Podaci ugovarača kopirani na sve putnike.", model.SeverityInfo)
		return nil
	})
}

// SetCustomerType requires PrivilegedLevel. A rejected attempt is logged.
func (s *Session) SetCustomerType(ctx context.Context, ct model.CustomerType) error {
	if !ct.Valid() {
		return apperr.Validation("session.set_customer_type", fmt.Sprintf("unknown customer type %q", ct))
	}
	return s.mutate(ctx, func(d *model.Dossier) error {
		if s.deps.Operator.Level < PrivilegedLevel {
			s.audit.Record(d, ActionPermissionDenied,
				fmt.Sprintf("Operater nivoa %d nema ovlašćenje za promenu tipa klijenta.", s.deps.Operator.Level),
				model.SeverityWarning)
			return apperr.Unauthorized("session.set_customer_type", "operator level below 6", ErrPermission)
		}
		d.CustomerType = ct
		s.audit.Record(d, ActionCustomerType, fmt.Sprintf("Tip klijenta promenjen u \"%s\".", customerTypeLabels[ct]), model.SeverityInfo)
		return nil
	})
}

// SetLanguage changes the default documentation language and resets every
// per-document override to it.
func (s *Session) SetLanguage(ctx context.Context, lang model.Language) error {
	if strings.TrimSpace(string(lang)) == "" {
		return apperr.Validation("session.set_language", "language is required")
	}
	return s.mutate(ctx, func(d *model.Dossier) error {
		d.Language = lang
		settings := make(map[model.DocumentType]model.Language, len(model.DocumentTypes))
		for _, t := range model.DocumentTypes {
			settings[t] = lang
		}
		d.DocSettings = settings
		s.audit.Record(d, ActionLanguage, fmt.Sprintf("Jezik dokumentacije promenjen u %s.", lang), model.SeverityInfo)
		return nil
	})
}

func (s *Session) SetNotes(ctx context.Context, n model.Notes) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		d.Notes = n
		s.audit.Record(d, ActionNotes, "Napomene dosijea su ažurirane.", model.SeverityInfo)
		return nil
	})
}

// SetInsurance edits the disclosure fields. The signed confirmation is never
// touched here.
func (s *Session) SetInsurance(ctx context.Context, ins model.Insurance) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		ins.ConfirmationText = d.Insurance.ConfirmationText
		ins.ConfirmationTimestamp = d.Insurance.ConfirmationTimestamp
		d.Insurance = ins
		s.audit.Record(d, ActionInsuranceEdited, "Podaci o osiguranju su ažurirani.", model.SeverityInfo)
		return nil
	})
}

// SignInsurance records the customer's confirmation once.
func (s *Session) SignInsurance(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return apperr.Validation("session.sign_insurance", "confirmation text is required")
	}
	return s.mutate(ctx, func(d *model.Dossier) error {
		if d.Insurance.Signed() {
			return apperr.New(apperr.CodeConflict, "session.sign_insurance", "", ErrInsuranceSigned)
		}
		d.Insurance.ConfirmationText = text
		d.Insurance.ConfirmationTimestamp = s.deps.Now().Format("2006-01-02T15:04:05Z07:00")
		s.audit.Record(d, ActionInsuranceConfirmed, "Putnik je elektronski potvrdio uslove osiguranja.", model.SeveritySuccess)
		return nil
	})
}

func (s *Session) validatePassenger(op string, p model.Passenger) error {
	switch p.Type {
	case model.TravelerAdult, model.TravelerChild, model.TravelerInfant:
	default:
		return apperr.New(apperr.CodeValidation, op, string(p.Type), ErrInvalidTravelerType)
	}
	if p.Nationality != "" && s.deps.Nationalities != nil && !s.deps.Nationalities.Contains(p.Nationality) {
		return apperr.New(apperr.CodeValidation, op, p.Nationality, ErrUnknownNationality)
	}
	return nil
}
