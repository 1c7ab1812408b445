package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"dossier-engine/internal/apperr"
	"dossier-engine/internal/model"
)

// AddCheck appends an empty check to a Check payment. The checks' total is not
// reconciled against the payment amount.
func (l *Ledger) AddCheck(d *model.Dossier, paymentID string) (model.Check, error) {
	c := model.Check{ID: uuid.NewString()}
	_, err := l.update(d, "ledger.add_check", paymentID, func(p model.Payment) (model.Payment, error) {
		if p.Method != model.MethodCheck {
			return p, apperr.New(apperr.CodeValidation, "ledger.add_check", p.ID, ErrNotCheckPayment)
		}
		p.Checks = model.Append(p.Checks, c)
		return p, nil
	})
	if err != nil {
		return model.Check{}, err
	}
	l.audit.Record(d, ActionCheckAdded, fmt.Sprintf("Novi ček je dodat uplati ID: %s.", paymentID), model.SeverityInfo)
	return c, nil
}

func (l *Ledger) EditCheck(d *model.Dossier, paymentID string, c model.Check) error {
	_, err := l.update(d, "ledger.edit_check", paymentID, func(p model.Payment) (model.Payment, error) {
		next, err := model.ReplaceByID(p.Checks, c.ID, func(model.Check) (model.Check, error) {
			return c, nil
		})
		if err != nil {
			return p, err
		}
		p.Checks = next
		return p, nil
	})
	if errors.Is(err, model.ErrNotFound) {
		return apperr.NotFound("ledger.edit_check", c.ID, err)
	}
	if err != nil {
		return err
	}
	l.audit.Record(d, ActionCheckEdited, fmt.Sprintf("Ček %s (%s) na uplati ID: %s je izmenjen.", c.CheckNumber, c.Bank, paymentID), model.SeverityInfo)
	return nil
}

func (l *Ledger) RemoveCheck(d *model.Dossier, paymentID, checkID string) error {
	_, err := l.update(d, "ledger.remove_check", paymentID, func(p model.Payment) (model.Payment, error) {
		next, _, err := model.RemoveByID(p.Checks, checkID)
		if err != nil {
			return p, err
		}
		p.Checks = next
		return p, nil
	})
	if errors.Is(err, model.ErrNotFound) {
		return apperr.NotFound("ledger.remove_check", checkID, err)
	}
	if err != nil {
		return err
	}
	l.audit.Record(d, ActionCheckRemoved, fmt.Sprintf("Ček ID: %s je uklonjen iz uplate ID: %s.", checkID, paymentID), model.SeverityDanger)
	return nil
}
