package ledger

import (
	"fmt"

	"dossier-engine/internal/apperr"
	"dossier-engine/internal/model"
)

// PayerSelection designates who paid: a passenger on the dossier, or an
// external party when External is set.
type PayerSelection struct {
	External    bool   `json:"external"`
	PassengerID string `json:"passengerId,omitempty"`
}

// SetPayer switches the payer designation. Switching clears the other side's
// fields; re-selecting external keeps an already filled external block.
func (l *Ledger) SetPayer(d *model.Dossier, id string, sel PayerSelection) error {
	if !sel.External {
		if _, ok := model.FindByID(d.Passengers, sel.PassengerID); !ok {
			return apperr.New(apperr.CodeValidation, "ledger.set_payer", sel.PassengerID, ErrUnknownPassenger)
		}
	}
	_, err := l.update(d, "ledger.set_payer", id, func(p model.Payment) (model.Payment, error) {
		if sel.External {
			p.IsExternalPayer = true
			p.TravelerPayerID = ""
			if p.PayerDetails == nil {
				p.PayerDetails = &model.ExternalPayer{}
			}
			return p, nil
		}
		p.IsExternalPayer = false
		p.PayerDetails = nil
		p.TravelerPayerID = sel.PassengerID
		return p, nil
	})
	if err != nil {
		return err
	}
	details := fmt.Sprintf("Platilac uplate ID: %s je putnik %s.", id, sel.PassengerID)
	if sel.External {
		details = fmt.Sprintf("Platilac uplate ID: %s je eksterno lice.", id)
	}
	l.audit.Record(d, ActionPayerChanged, details, model.SeverityInfo)
	return nil
}

// SetPayerDetails fills the external payer block of an external-payer payment.
func (l *Ledger) SetPayerDetails(d *model.Dossier, id string, details model.ExternalPayer) error {
	_, err := l.update(d, "ledger.set_payer_details", id, func(p model.Payment) (model.Payment, error) {
		if !p.IsExternalPayer {
			return p, apperr.Validation("ledger.set_payer_details", "payment payer is not external")
		}
		pd := details
		p.PayerDetails = &pd
		return p, nil
	})
	if err != nil {
		return err
	}
	l.audit.Record(d, ActionPayerChanged, fmt.Sprintf("Podaci eksternog platioca za uplatu ID: %s su ažurirani.", id), model.SeverityInfo)
	return nil
}
