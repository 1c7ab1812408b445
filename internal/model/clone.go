package model

import "math"

// Clone returns a deep copy sharing no slices, maps or pointers with d.
func (d *Dossier) Clone() *Dossier {
	if d == nil {
		return nil
	}
	c := *d
	if d.ResCode != nil {
		rc := *d.ResCode
		c.ResCode = &rc
	}
	c.Passengers = CloneSlice(d.Passengers)
	c.TripItems = make([]TripItem, len(d.TripItems))
	for i, it := range d.TripItems {
		c.TripItems[i] = it.Clone()
	}
	c.Finance.Installments = CloneSlice(d.Finance.Installments)
	c.Finance.Payments = make([]Payment, len(d.Finance.Payments))
	for i, p := range d.Finance.Payments {
		c.Finance.Payments[i] = p.Clone()
	}
	c.Logs = CloneSlice(d.Logs)
	c.DocSettings = make(map[DocumentType]Language, len(d.DocSettings))
	for k, v := range d.DocSettings {
		c.DocSettings[k] = v
	}
	c.DocumentTracker = make(map[DocumentType]DocumentState, len(d.DocumentTracker))
	for k, v := range d.DocumentTracker {
		c.DocumentTracker[k] = v
	}
	return &c
}

func (t TripItem) Clone() TripItem {
	c := t
	c.Passengers = CloneSlice(t.Passengers)
	if t.Flight != nil {
		c.Flight = &FlightItinerary{Legs: CloneSlice(t.Flight.Legs)}
	}
	return c
}

func (p Payment) Clone() Payment {
	c := p
	c.Checks = CloneSlice(p.Checks)
	if p.PayerDetails != nil {
		pd := *p.PayerDetails
		c.PayerDetails = &pd
	}
	return c
}

// Backfill repairs blobs persisted by older versions: missing tracker entries,
// doc settings, collections and payment status are filled with defaults.
// Voided payments are zeroed. Exchange rates need a table, see BackfillRates.
func (d *Dossier) Backfill() {
	if d.Language == "" {
		d.Language = DefaultLanguage
	}
	if d.Status == "" {
		d.Status = StatusRequest
	}
	if d.CustomerType == "" {
		d.CustomerType = CustomerIndividual
	}
	if d.Finance.Currency == "" {
		d.Finance.Currency = CurrencyEUR
	}
	if d.Passengers == nil {
		d.Passengers = []Passenger{}
	}
	if d.TripItems == nil {
		d.TripItems = []TripItem{}
	}
	if d.Finance.Payments == nil {
		d.Finance.Payments = []Payment{}
	}
	if d.Finance.Installments == nil {
		d.Finance.Installments = []Installment{}
	}
	if d.Logs == nil {
		d.Logs = []LogEntry{}
	}
	for i := range d.Finance.Payments {
		p := &d.Finance.Payments[i]
		if p.Status == "" {
			p.Status = PaymentActive
		}
		if p.Currency == "" {
			p.Currency = d.Finance.Currency
		}
		if p.Voided() {
			p.Amount = 0
			p.AmountInRsd = 0
		}
	}
	if d.DocumentTracker == nil {
		d.DocumentTracker = make(map[DocumentType]DocumentState, len(DocumentTypes))
	}
	if d.DocSettings == nil {
		d.DocSettings = make(map[DocumentType]Language, len(DocumentTypes))
	}
	for _, t := range DocumentTypes {
		if _, ok := d.DocumentTracker[t]; !ok {
			d.DocumentTracker[t] = DocumentState{}
		}
		if _, ok := d.DocSettings[t]; !ok {
			d.DocSettings[t] = d.Language
		}
	}
}

// BackfillRates quotes payments stored without an exchange rate from rate and
// derives the missing RSD amount from it.
func (d *Dossier) BackfillRates(rate func(Currency) float64) {
	for i := range d.Finance.Payments {
		p := &d.Finance.Payments[i]
		if p.ExchangeRate != 0 {
			continue
		}
		p.ExchangeRate = rate(p.Currency)
		if p.AmountInRsd == 0 && !p.Voided() {
			p.AmountInRsd = math.Round(p.Amount*p.ExchangeRate*100) / 100
		}
	}
}
