package finance

import "dossier-engine/internal/model"

// Compute derives the dossier totals from its trip items and payments.
// Voided payments are excluded from TotalPaid. Balance is not clamped, a
// negative value means the customer overpaid.
func Compute(items []model.TripItem, payments []model.Payment) model.Summary {
	var s model.Summary
	for _, it := range items {
		s.TotalBrutto += it.BruttoPrice
		s.TotalNet += it.NetPrice
	}
	s.TotalProfit = s.TotalBrutto - s.TotalNet
	if s.TotalNet > 0 {
		s.ProfitPercent = s.TotalProfit / s.TotalNet * 100
	}
	s.TotalPaid = TotalPaid(payments)
	s.Balance = s.TotalBrutto - s.TotalPaid
	return s
}

func Of(d *model.Dossier) model.Summary {
	if d == nil {
		return model.Summary{}
	}
	return Compute(d.TripItems, d.Finance.Payments)
}

func TotalPaid(payments []model.Payment) float64 {
	var total float64
	for _, p := range payments {
		if p.Voided() {
			continue
		}
		total += p.Amount
	}
	return total
}

// ChecksTotal is informational only and is not reconciled against p.Amount.
func ChecksTotal(p model.Payment) float64 {
	var total float64
	for _, c := range p.Checks {
		total += c.Amount
	}
	return total
}

func InstallmentsDue(installments []model.Installment) float64 {
	var total float64
	for _, i := range installments {
		if i.Status != model.InstallmentPaid {
			total += i.Amount
		}
	}
	return total
}
