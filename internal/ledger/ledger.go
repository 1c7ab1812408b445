package ledger

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"dossier-engine/internal/apperr"
	"dossier-engine/internal/audit"
	"dossier-engine/internal/model"
	"dossier-engine/internal/refdata"
)

// CommitLayout is the local date-time stamp written into Payment.Date on commit.
const CommitLayout = "2006-01-02T15:04"

const (
	ActionPaymentAdded     = "Dodavanje Uplate"
	ActionPaymentEdited    = "Izmena Uplate"
	ActionPaymentCommitted = "Potvrda Uplate"
	ActionPaymentVoided    = "Storniranje Uplate"
	ActionVoidRejected     = "Neuspelo Brisanje Uplate"
	ActionPayerChanged     = "Platilac Uplate"
	ActionCheckAdded       = "Dodavanje Čeka"
	ActionCheckEdited      = "Izmena Čeka"
	ActionCheckRemoved     = "Brisanje Čeka"
)

var (
	ErrVoided           = errors.New("payment is voided")
	ErrAlreadyCommitted = errors.New("payment is already committed")
	ErrWrongSecret      = errors.New("wrong elevated-privilege secret")
	ErrNotCheckPayment  = errors.New("payment method is not Check")
	ErrUnknownPassenger = errors.New("payer passenger is not on the dossier")
	ErrInvalidCurrency  = errors.New("unsupported currency")
	ErrInvalidMethod    = errors.New("unsupported payment method")
)

// Ledger applies payment state transitions to a dossier. Every successful
// operation, and every rejected void, appends exactly one audit entry.
type Ledger struct {
	rates refdata.Rates
	guard *Guard
	audit *audit.Recorder
	now   func() time.Time
}

func New(rates refdata.Rates, guard *Guard, rec *audit.Recorder) *Ledger {
	return &Ledger{rates: rates, guard: guard, audit: rec, now: time.Now}
}

// WithClock overrides the commit timestamp source.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	c := *l
	c.now = now
	return &c
}

// Add appends an empty draft payment in the dossier currency.
func (l *Ledger) Add(d *model.Dossier) model.Payment {
	p := model.Payment{
		ID:           uuid.NewString(),
		Currency:     d.Finance.Currency,
		Method:       model.MethodCash,
		ReceiptNo:    fmt.Sprintf("PR-%d", len(d.Finance.Payments)+1),
		Checks:       []model.Check{},
		ExchangeRate: l.rates.Rate(d.Finance.Currency),
		Status:       model.PaymentActive,
	}
	d.Finance.Payments = model.Append(d.Finance.Payments, p)
	l.audit.Record(d, ActionPaymentAdded, "Novi prazan red za uplatu je dodat.", model.SeverityInfo)
	return p
}

// SetAmount recomputes AmountInRsd with the stored exchange rate; the rate
// table is only consulted on currency change.
func (l *Ledger) SetAmount(d *model.Dossier, id string, amount float64) error {
	p, err := l.update(d, "ledger.set_amount", id, func(p model.Payment) (model.Payment, error) {
		p.Amount = amount
		p.AmountInRsd = round2(amount * p.ExchangeRate)
		return p, nil
	})
	if err != nil {
		return err
	}
	l.audit.Record(d, ActionPaymentEdited, fmt.Sprintf("Iznos uplate ID: %s promenjen na %s %s.", id, formatAmount(p.Amount), p.Currency), model.SeverityInfo)
	return nil
}

func (l *Ledger) SetCurrency(d *model.Dossier, id string, c model.Currency) error {
	if !c.Valid() {
		return apperr.New(apperr.CodeValidation, "ledger.set_currency", string(c), ErrInvalidCurrency)
	}
	p, err := l.update(d, "ledger.set_currency", id, func(p model.Payment) (model.Payment, error) {
		p.Currency = c
		p.ExchangeRate = l.rates.Rate(c)
		p.AmountInRsd = round2(p.Amount * p.ExchangeRate)
		return p, nil
	})
	if err != nil {
		return err
	}
	l.audit.Record(d, ActionPaymentEdited, fmt.Sprintf("Valuta uplate ID: %s promenjena u %s (kurs %s).", id, c, formatAmount(p.ExchangeRate)), model.SeverityInfo)
	return nil
}

// Edit holds optional field changes; nil fields are left as they are.
type Edit struct {
	Method            *model.PaymentMethod `json:"method,omitempty"`
	ReceiptNo         *string              `json:"receiptNo,omitempty"`
	FiscalReceiptNo   *string              `json:"fiscalReceiptNo,omitempty"`
	RegistrationMark  *string              `json:"registrationMark,omitempty"`
	CardType          *string              `json:"cardType,omitempty"`
	InstallmentsCount *int                 `json:"installmentsCount,omitempty"`
	BankName          *string              `json:"bankName,omitempty"`
	PayerName         *string              `json:"payerName,omitempty"`
}

func (l *Ledger) Edit(d *model.Dossier, id string, e Edit) error {
	if e.Method != nil && !e.Method.Valid() {
		return apperr.New(apperr.CodeValidation, "ledger.edit", string(*e.Method), ErrInvalidMethod)
	}
	_, err := l.update(d, "ledger.edit", id, func(p model.Payment) (model.Payment, error) {
		if e.Method != nil {
			p.Method = *e.Method
		}
		setIf(&p.ReceiptNo, e.ReceiptNo)
		setIf(&p.FiscalReceiptNo, e.FiscalReceiptNo)
		setIf(&p.RegistrationMark, e.RegistrationMark)
		setIf(&p.CardType, e.CardType)
		setIf(&p.BankName, e.BankName)
		setIf(&p.PayerName, e.PayerName)
		if e.InstallmentsCount != nil {
			p.InstallmentsCount = *e.InstallmentsCount
		}
		return p, nil
	})
	if err != nil {
		return err
	}
	l.audit.Record(d, ActionPaymentEdited, fmt.Sprintf("Podaci uplate ID: %s su izmenjeni.", id), model.SeverityInfo)
	return nil
}

// Commit stamps the draft with the current local time. Amounts <= 0 are accepted.
func (l *Ledger) Commit(d *model.Dossier, id string) error {
	p, err := l.update(d, "ledger.commit", id, func(p model.Payment) (model.Payment, error) {
		if !p.Draft() {
			return p, apperr.New(apperr.CodeConflict, "ledger.commit", p.ID, ErrAlreadyCommitted)
		}
		p.Date = l.now().Format(CommitLayout)
		return p, nil
	})
	if err != nil {
		return err
	}
	l.audit.Record(d, ActionPaymentCommitted,
		fmt.Sprintf("Uplata od %s %s je potvrđena i proknjižena. Način: %s.", formatAmount(p.Amount), p.Currency, p.Method),
		model.SeveritySuccess)
	return nil
}

// Void redacts a payment after verifying the elevated-privilege secret. The
// original amount survives only in the danger entry written here.
func (l *Ledger) Void(d *model.Dossier, id, secret string) error {
	if _, ok := model.FindByID(d.Finance.Payments, id); !ok {
		return apperr.NotFound("ledger.void", id, model.ErrNotFound)
	}
	if !l.guard.Verify(secret) {
		l.audit.Record(d, ActionVoidRejected, "Pokušano brisanje uplate sa pogrešnom lozinkom.", model.SeverityWarning)
		return apperr.Unauthorized("ledger.void", id, ErrWrongSecret)
	}
	var original model.Payment
	_, err := l.update(d, "ledger.void", id, func(p model.Payment) (model.Payment, error) {
		original = p
		p.Status = model.PaymentDeleted
		p.Amount = 0
		p.AmountInRsd = 0
		return p, nil
	})
	if err != nil {
		return err
	}
	l.audit.Record(d, ActionPaymentVoided,
		fmt.Sprintf("Uplata ID: %s (Iznos: %s %s) je STORNIRANA.", id, formatAmount(original.Amount), original.Currency),
		model.SeverityDanger)
	return nil
}

// update runs fn on a copy of the payment and swaps in a new payments slice.
// Voided payments are immutable.
func (l *Ledger) update(d *model.Dossier, op, id string, fn func(model.Payment) (model.Payment, error)) (model.Payment, error) {
	var result model.Payment
	next, err := model.ReplaceByID(d.Finance.Payments, id, func(p model.Payment) (model.Payment, error) {
		if p.Voided() {
			return p, apperr.New(apperr.CodeConflict, op, p.ID, ErrVoided)
		}
		np, err := fn(p.Clone())
		result = np
		return np, err
	})
	if errors.Is(err, model.ErrNotFound) {
		return result, apperr.NotFound(op, id, err)
	}
	if err != nil {
		return result, err
	}
	d.Finance.Payments = next
	return result, nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
