package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"dossier-engine/internal/apperr"
	"dossier-engine/internal/ledger"
	"dossier-engine/internal/model"
)

const (
	ActionCurrency          = "Valuta Dosijea"
	ActionInstallmentAdded  = "Dodavanje Rate"
	ActionInstallmentPaid   = "Plaćanje Rate"
	ActionInstallmentRemove = "Brisanje Rate"
)

func (s *Session) AddPayment(ctx context.Context) (model.Payment, error) {
	var p model.Payment
	err := s.mutate(ctx, func(d *model.Dossier) error {
		p = s.ledger.Add(d)
		return nil
	})
	return p, err
}

func (s *Session) SetPaymentAmount(ctx context.Context, id string, amount float64) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		return s.ledger.SetAmount(d, id, amount)
	})
}

func (s *Session) SetPaymentCurrency(ctx context.Context, id string, c model.Currency) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		return s.ledger.SetCurrency(d, id, c)
	})
}

func (s *Session) EditPayment(ctx context.Context, id string, e ledger.Edit) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		return s.ledger.Edit(d, id, e)
	})
}

func (s *Session) CommitPayment(ctx context.Context, id string) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		return s.ledger.Commit(d, id)
	})
}

// VoidPayment needs the elevated-privilege secret. A wrong secret leaves
// the payment alone but is still logged and autosaved.
func (s *Session) VoidPayment(ctx context.Context, id, secret string) error {
	err := s.mutate(ctx, func(d *model.Dossier) error {
		return s.ledger.Void(d, id, secret)
	})
	if apperr.IsCode(err, apperr.CodeUnauthorized) {
		s.log.Warn("payment void rejected", "paymentId", id, "operator", s.Operator().Name)
	}
	return err
}

func (s *Session) SetPaymentPayer(ctx context.Context, id string, sel ledger.PayerSelection) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		return s.ledger.SetPayer(d, id, sel)
	})
}

func (s *Session) SetPayerDetails(ctx context.Context, id string, details model.ExternalPayer) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		return s.ledger.SetPayerDetails(d, id, details)
	})
}

func (s *Session) AddCheck(ctx context.Context, paymentID string) (model.Check, error) {
	var c model.Check
	err := s.mutate(ctx, func(d *model.Dossier) error {
		var err error
		c, err = s.ledger.AddCheck(d, paymentID)
		return err
	})
	return c, err
}

func (s *Session) EditCheck(ctx context.Context, paymentID string, c model.Check) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		return s.ledger.EditCheck(d, paymentID, c)
	})
}

func (s *Session) RemoveCheck(ctx context.Context, paymentID, checkID string) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		return s.ledger.RemoveCheck(d, paymentID, checkID)
	})
}

// SetCurrency changes the dossier currency used for new payments. Existing
// payments keep their own currency.
func (s *Session) SetCurrency(ctx context.Context, c model.Currency) error {
	if !c.Valid() {
		return apperr.New(apperr.CodeValidation, "session.set_currency", string(c), ledger.ErrInvalidCurrency)
	}
	return s.mutate(ctx, func(d *model.Dossier) error {
		d.Finance.Currency = c
		s.audit.Record(d, ActionCurrency, fmt.Sprintf("Valuta dosijea promenjena u %s.", c), model.SeverityInfo)
		return nil
	})
}

func (s *Session) AddInstallment(ctx context.Context, amount float64, dueDate string) (model.Installment, error) {
	if amount <= 0 {
		return model.Installment{}, apperr.Validation("session.add_installment", "amount must be positive")
	}
	inst := model.Installment{ID: uuid.NewString(), Amount: amount, DueDate: dueDate, Status: model.InstallmentPending}
	err := s.mutate(ctx, func(d *model.Dossier) error {
		d.Finance.Installments = model.Append(d.Finance.Installments, inst)
		s.audit.Record(d, ActionInstallmentAdded,
			fmt.Sprintf("Rata od %.2f %s sa rokom %s je dodata.", amount, d.Finance.Currency, dueDate), model.SeverityInfo)
		return nil
	})
	if err != nil {
		return model.Installment{}, err
	}
	return inst, nil
}

func (s *Session) MarkInstallmentPaid(ctx context.Context, id string) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		var amount float64
		next, err := model.ReplaceByID(d.Finance.Installments, id, func(i model.Installment) (model.Installment, error) {
			if i.Status == model.InstallmentPaid {
				return i, apperr.Conflict("session.mark_installment_paid", "installment already paid", nil)
			}
			i.Status = model.InstallmentPaid
			amount = i.Amount
			return i, nil
		})
		if apperr.IsCode(err, apperr.CodeConflict) {
			return err
		}
		if err != nil {
			return apperr.NotFound("session.mark_installment_paid", id, err)
		}
		d.Finance.Installments = next
		s.audit.Record(d, ActionInstallmentPaid,
			fmt.Sprintf("Rata od %.2f %s je označena kao plaćena.", amount, d.Finance.Currency), model.SeveritySuccess)
		return nil
	})
}

func (s *Session) RemoveInstallment(ctx context.Context, id string) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		next, removed, err := model.RemoveByID(d.Finance.Installments, id)
		if err != nil {
			return apperr.NotFound("session.remove_installment", id, err)
		}
		d.Finance.Installments = next
		s.audit.Record(d, ActionInstallmentRemove,
			fmt.Sprintf("Rata od %.2f %s (rok %s) je uklonjena.", removed.Amount, d.Finance.Currency, removed.DueDate), model.SeverityDanger)
		return nil
	})
}
