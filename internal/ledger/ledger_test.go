package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"dossier-engine/internal/apperr"
	"dossier-engine/internal/audit"
	"dossier-engine/internal/finance"
	"dossier-engine/internal/model"
	"dossier-engine/internal/refdata"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	rates, err := refdata.NewRates(refdata.DefaultRates)
	require.NoError(t, err)
	guard, err := NewGuard("ADMIN2026", bcrypt.MinCost)
	require.NoError(t, err)
	clock := func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local) }
	return New(rates, guard, audit.NewRecorder("Nenad")).WithClock(clock)
}

func newDossier() *model.Dossier {
	d := &model.Dossier{CisCode: "CIS-TEST00001"}
	d.Backfill()
	d.Passengers = []model.Passenger{{ID: "p1", FirstName: "Ana", LastName: "Jović", Type: model.TravelerAdult}}
	return d
}

func TestAdd_CreatesDraftInDossierCurrency(t *testing.T) {
	l := newTestLedger(t)
	d := newDossier()

	p := l.Add(d)

	assert.True(t, p.Draft())
	assert.Equal(t, model.CurrencyEUR, p.Currency)
	assert.Equal(t, 117.0, p.ExchangeRate)
	assert.Equal(t, "PR-1", p.ReceiptNo)
	require.Len(t, d.Finance.Payments, 1)
	assert.Equal(t, 1, audit.Count(d, ActionPaymentAdded))
}

func TestCurrencyChange_RequotesRate(t *testing.T) {
	l := newTestLedger(t)
	d := newDossier()
	p := l.Add(d)

	require.NoError(t, l.SetAmount(d, p.ID, 100))
	got, _ := model.FindByID(d.Finance.Payments, p.ID)
	assert.Equal(t, 11700.0, got.AmountInRsd)

	require.NoError(t, l.SetCurrency(d, p.ID, model.CurrencyUSD))
	got, _ = model.FindByID(d.Finance.Payments, p.ID)
	assert.Equal(t, 108.0, got.ExchangeRate)
	assert.Equal(t, 10800.0, got.AmountInRsd)

	err := l.SetCurrency(d, p.ID, model.Currency("GBP"))
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestCommit(t *testing.T) {
	l := newTestLedger(t)
	d := newDossier()
	p := l.Add(d)
	require.NoError(t, l.SetAmount(d, p.ID, 0))

	require.NoError(t, l.Commit(d, p.ID))
	got, _ := model.FindByID(d.Finance.Payments, p.ID)
	assert.Equal(t, "2026-03-14T09:30", got.Date)
	assert.Equal(t, ActionPaymentCommitted, d.Logs[0].Action)
	assert.Equal(t, model.SeveritySuccess, d.Logs[0].Severity)

	err := l.Commit(d, p.ID)
	assert.ErrorIs(t, err, ErrAlreadyCommitted)
}

func TestVoid_WrongSecretLeavesPaymentUntouched(t *testing.T) {
	l := newTestLedger(t)
	d := newDossier()
	p := l.Add(d)
	require.NoError(t, l.SetAmount(d, p.ID, 500))
	require.NoError(t, l.Commit(d, p.ID))
	before := len(d.Logs)

	err := l.Void(d, p.ID, "admin2026")

	assert.ErrorIs(t, err, ErrWrongSecret)
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))
	require.Len(t, d.Logs, before+1)
	assert.Equal(t, ActionVoidRejected, d.Logs[0].Action)
	assert.Equal(t, model.SeverityWarning, d.Logs[0].Severity)
	got, _ := model.FindByID(d.Finance.Payments, p.ID)
	assert.Equal(t, 500.0, got.Amount)
	assert.False(t, got.Voided())
}

func TestVoid_RedactsAndIsFinal(t *testing.T) {
	l := newTestLedger(t)
	d := newDossier()
	d.TripItems = []model.TripItem{{ID: "t1", Type: model.TripStay, NetPrice: 1600, BruttoPrice: 1850}}
	p := l.Add(d)
	require.NoError(t, l.SetAmount(d, p.ID, 500))
	require.NoError(t, l.Commit(d, p.ID))
	assert.Equal(t, 1350.0, finance.Of(d).Balance)

	require.NoError(t, l.Void(d, p.ID, "ADMIN2026"))

	got, _ := model.FindByID(d.Finance.Payments, p.ID)
	assert.True(t, got.Voided())
	assert.Zero(t, got.Amount)
	assert.Zero(t, got.AmountInRsd)
	assert.Equal(t, 1850.0, finance.Of(d).Balance)
	assert.Equal(t, model.SeverityDanger, d.Logs[0].Severity)
	assert.Contains(t, d.Logs[0].Details, "500.00 EUR")

	assert.ErrorIs(t, l.SetAmount(d, p.ID, 10), ErrVoided)
	assert.ErrorIs(t, l.Void(d, p.ID, "ADMIN2026"), ErrVoided)
}

func TestVoid_UnknownPayment(t *testing.T) {
	l := newTestLedger(t)
	d := newDossier()

	err := l.Void(d, "missing", "ADMIN2026")

	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	assert.Empty(t, d.Logs)
}

func TestSetPayer(t *testing.T) {
	l := newTestLedger(t)
	d := newDossier()
	p := l.Add(d)

	require.NoError(t, l.SetPayer(d, p.ID, PayerSelection{PassengerID: "p1"}))
	got, _ := model.FindByID(d.Finance.Payments, p.ID)
	assert.Equal(t, "p1", got.TravelerPayerID)
	assert.False(t, got.IsExternalPayer)

	require.NoError(t, l.SetPayer(d, p.ID, PayerSelection{External: true}))
	require.NoError(t, l.SetPayerDetails(d, p.ID, model.ExternalPayer{FullName: "Firma DOO"}))
	got, _ = model.FindByID(d.Finance.Payments, p.ID)
	assert.Empty(t, got.TravelerPayerID)
	require.NotNil(t, got.PayerDetails)

	// re-selecting external keeps filled details
	require.NoError(t, l.SetPayer(d, p.ID, PayerSelection{External: true}))
	got, _ = model.FindByID(d.Finance.Payments, p.ID)
	assert.Equal(t, "Firma DOO", got.PayerDetails.FullName)

	err := l.SetPayer(d, p.ID, PayerSelection{PassengerID: "ghost"})
	assert.ErrorIs(t, err, ErrUnknownPassenger)
}

func TestChecks(t *testing.T) {
	l := newTestLedger(t)
	d := newDossier()
	p := l.Add(d)

	_, err := l.AddCheck(d, p.ID)
	assert.ErrorIs(t, err, ErrNotCheckPayment)

	method := model.MethodCheck
	require.NoError(t, l.Edit(d, p.ID, Edit{Method: &method}))
	c, err := l.AddCheck(d, p.ID)
	require.NoError(t, err)

	c.CheckNumber = "0012"
	c.Amount = 250
	require.NoError(t, l.EditCheck(d, p.ID, c))
	got, _ := model.FindByID(d.Finance.Payments, p.ID)
	require.Len(t, got.Checks, 1)
	assert.Equal(t, 250.0, finance.ChecksTotal(got))

	require.NoError(t, l.RemoveCheck(d, p.ID, c.ID))
	got, _ = model.FindByID(d.Finance.Payments, p.ID)
	assert.Empty(t, got.Checks)
	assert.Equal(t, 1, audit.Count(d, ActionCheckRemoved))

	err = l.RemoveCheck(d, p.ID, c.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestGuard(t *testing.T) {
	_, err := NewGuard("", bcrypt.MinCost)
	assert.Error(t, err)

	g, err := NewGuard("ADMIN2026", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, g.Verify("ADMIN2026"))
	assert.False(t, g.Verify(""))

	h, err := bcrypt.GenerateFromPassword([]byte("x"), bcrypt.MinCost)
	require.NoError(t, err)
	g2, err := NewGuardFromHash(string(h))
	require.NoError(t, err)
	assert.True(t, g2.Verify("x"))

	var nilGuard *Guard
	assert.False(t, nilGuard.Verify("x"))
}
