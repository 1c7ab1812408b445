package model

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripItemJSONFlightVariant(t *testing.T) {
	item := TripItem{
		ID:          "t1",
		Type:        TripFlight,
		Supplier:    "Air Serbia",
		NetPrice:    300,
		BruttoPrice: 350,
		Flight: &FlightItinerary{Legs: []FlightLeg{
			{ID: "l1", DepAirport: "BEG", ArrAirport: "ATH", FlightNumber: "JU 500", Airline: "Air Serbia"},
		}},
	}

	raw, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"flightLegs":[`)

	var back TripItem
	require.NoError(t, json.Unmarshal(raw, &back))
	require.NotNil(t, back.Flight)
	assert.Equal(t, "JU 500", back.Legs()[0].FlightNumber)
}

func TestTripItemJSONDropsLegsOnNonFlight(t *testing.T) {
	raw := []byte(`{"id":"t1","type":"Smestaj","supplier":"TCT","flightLegs":[{"id":"l1"}]}`)

	var item TripItem
	require.NoError(t, json.Unmarshal(raw, &item))

	assert.Nil(t, item.Flight)
	assert.Nil(t, item.Legs())
}

func TestDossierCloneIsDeep(t *testing.T) {
	rc := "Ref - 0000001/2026"
	d := &Dossier{
		ResCode:    &rc,
		Passengers: []Passenger{{ID: "p1"}},
		TripItems: []TripItem{{
			ID:         "t1",
			Type:       TripFlight,
			Passengers: []Passenger{{ID: "p1", FirstName: "Petar"}},
			Flight:     &FlightItinerary{Legs: []FlightLeg{{ID: "l1"}}},
		}},
		Finance: Finance{Payments: []Payment{{ID: "pay1", Checks: []Check{{ID: "c1"}}, PayerDetails: &ExternalPayer{FullName: "X"}}}},
		DocumentTracker: map[DocumentType]DocumentState{DocContract: {}},
	}

	c := d.Clone()
	*c.ResCode = "changed"
	c.TripItems[0].Passengers[0].FirstName = "Marko"
	c.TripItems[0].Flight.Legs[0].ID = "l2"
	c.Finance.Payments[0].Checks[0].ID = "c2"
	c.Finance.Payments[0].PayerDetails.FullName = "Y"
	c.DocumentTracker[DocContract] = DocumentState{Generated: true}

	assert.Equal(t, "Ref - 0000001/2026", *d.ResCode)
	assert.Equal(t, "Petar", d.TripItems[0].Passengers[0].FirstName)
	assert.Equal(t, "l1", d.TripItems[0].Flight.Legs[0].ID)
	assert.Equal(t, "c1", d.Finance.Payments[0].Checks[0].ID)
	assert.Equal(t, "X", d.Finance.Payments[0].PayerDetails.FullName)
	assert.False(t, d.DocumentTracker[DocContract].Generated)
}

func TestBackfillHealsOldBlob(t *testing.T) {
	var d Dossier
	require.NoError(t, json.Unmarshal([]byte(`{
		"cisCode": "CIS-OLD",
		"finance": {"payments": [{"id": "p1", "amount": 10}]}
	}`), &d))

	d.Backfill()

	assert.Equal(t, StatusRequest, d.Status)
	assert.Equal(t, DefaultLanguage, d.Language)
	assert.Equal(t, PaymentActive, d.Finance.Payments[0].Status)
	assert.Len(t, d.DocumentTracker, len(DocumentTypes))
	assert.Equal(t, DefaultLanguage, d.DocSettings[DocVoucher])
	assert.NotNil(t, d.TripItems)
	assert.Equal(t, CurrencyEUR, d.Finance.Payments[0].Currency)
	assert.Zero(t, d.Finance.Payments[0].ExchangeRate, "rates are quoted by BackfillRates")
}

func TestBackfillZeroesVoidedPayments(t *testing.T) {
	var d Dossier
	require.NoError(t, json.Unmarshal([]byte(`{
		"finance": {"payments": [
			{"id": "p1", "amount": 500, "amountInRsd": 58500, "currency": "EUR", "exchangeRate": 117, "status": "deleted"},
			{"id": "p2", "amount": 20, "amountInRsd": 2340, "currency": "EUR", "exchangeRate": 117}
		]}
	}`), &d))

	d.Backfill()

	assert.Zero(t, d.Finance.Payments[0].Amount)
	assert.Zero(t, d.Finance.Payments[0].AmountInRsd)
	assert.Equal(t, 20.0, d.Finance.Payments[1].Amount)
	assert.Equal(t, 2340.0, d.Finance.Payments[1].AmountInRsd)
}

func TestBackfillRates(t *testing.T) {
	d := Dossier{Finance: Finance{Payments: []Payment{
		{ID: "p1", Amount: 10, Currency: CurrencyEUR},
		{ID: "p2", Amount: 5, Currency: CurrencyUSD, ExchangeRate: 100, AmountInRsd: 500},
	}}}
	rate := func(c Currency) float64 {
		return map[Currency]float64{CurrencyEUR: 117, CurrencyUSD: 108}[c]
	}

	d.BackfillRates(rate)

	assert.Equal(t, 117.0, d.Finance.Payments[0].ExchangeRate)
	assert.Equal(t, 1170.0, d.Finance.Payments[0].AmountInRsd)
	assert.Equal(t, 100.0, d.Finance.Payments[1].ExchangeRate, "stored rates are kept")
	assert.Equal(t, 500.0, d.Finance.Payments[1].AmountInRsd)
}
