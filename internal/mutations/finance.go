package mutations

import (
	"context"
	"fmt"

	"dossier-engine/internal/ledger"
	"dossier-engine/internal/model"
)

type paymentIDProps struct {
	PaymentID string `json:"payment_id"`
}

type paymentAmountProps struct {
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
}

type paymentCurrencyProps struct {
	PaymentID string         `json:"payment_id"`
	Currency  model.Currency `json:"currency"`
}

type editPaymentProps struct {
	PaymentID string      `json:"payment_id"`
	Edit      ledger.Edit `json:"edit"`
}

type voidPaymentProps struct {
	PaymentID string `json:"payment_id"`
	Secret    string `json:"secret"`
}

type payerProps struct {
	PaymentID   string `json:"payment_id"`
	External    bool   `json:"external"`
	PassengerID string `json:"passenger_id"`
}

type payerDetailsProps struct {
	PaymentID string              `json:"payment_id"`
	Details   model.ExternalPayer `json:"details"`
}

type checkProps struct {
	PaymentID string      `json:"payment_id"`
	Check     model.Check `json:"check"`
}

type checkIDProps struct {
	PaymentID string `json:"payment_id"`
	CheckID   string `json:"check_id"`
}

type currencyProps struct {
	Currency model.Currency `json:"currency"`
}

type installmentProps struct {
	Amount  float64 `json:"amount"`
	DueDate string  `json:"due_date"`
}

type installmentIDProps struct {
	InstallmentID string `json:"installment_id"`
}

func needPayment(state *State, explicit string) []model.CalculationMessage {
	return requireRef(state, refPayment, explicit, "payment_id")
}

func checkCurrency(c model.Currency) []model.CalculationMessage {
	if !c.Valid() {
		return []model.CalculationMessage{critical("INVALID_CURRENCY", fmt.Sprintf("Unsupported currency %q", c))}
	}
	return nil
}

var addPayment = op[struct{}]{apply: func(ctx context.Context, state *State, _ *struct{}) ([]model.CalculationMessage, error) {
	p, err := state.Session.AddPayment(ctx)
	if err != nil {
		return nil, err
	}
	state.remember(refPayment, p.ID)
	return []model.CalculationMessage{info("PAYMENT_ADDED", p.ID)}, nil
}}

var setPaymentAmount = exec(func(ctx context.Context, state *State, p *paymentAmountProps) error {
	return state.Session.SetPaymentAmount(ctx, state.resolve(refPayment, p.PaymentID), p.Amount)
}).withCheck(func(state *State, p *paymentAmountProps) []model.CalculationMessage {
	if p.Amount < 0 {
		return []model.CalculationMessage{critical("INVALID_AMOUNT", "Amount must not be negative")}
	}
	return needPayment(state, p.PaymentID)
})

var setPaymentCurrency = exec(func(ctx context.Context, state *State, p *paymentCurrencyProps) error {
	return state.Session.SetPaymentCurrency(ctx, state.resolve(refPayment, p.PaymentID), p.Currency)
}).withCheck(func(state *State, p *paymentCurrencyProps) []model.CalculationMessage {
	if msgs := checkCurrency(p.Currency); msgs != nil {
		return msgs
	}
	return needPayment(state, p.PaymentID)
})

var editPayment = exec(func(ctx context.Context, state *State, p *editPaymentProps) error {
	return state.Session.EditPayment(ctx, state.resolve(refPayment, p.PaymentID), p.Edit)
}).withCheck(func(state *State, p *editPaymentProps) []model.CalculationMessage {
	return needPayment(state, p.PaymentID)
})

var commitPayment = op[paymentIDProps]{
	check: func(state *State, p *paymentIDProps) []model.CalculationMessage {
		return needPayment(state, p.PaymentID)
	},
	apply: func(ctx context.Context, state *State, p *paymentIDProps) ([]model.CalculationMessage, error) {
		id := state.resolve(refPayment, p.PaymentID)
		if err := state.Session.CommitPayment(ctx, id); err != nil {
			return nil, err
		}
		var msgs []model.CalculationMessage
		if pay, ok := model.FindByID(state.Session.Snapshot().Finance.Payments, id); ok && pay.Amount == 0 {
			msgs = append(msgs, warning("ZERO_AMOUNT_PAYMENT", "A payment of 0 was committed"))
		}
		return msgs, nil
	},
}

var voidPayment = exec(func(ctx context.Context, state *State, p *voidPaymentProps) error {
	return state.Session.VoidPayment(ctx, state.resolve(refPayment, p.PaymentID), p.Secret)
}).withCheck(func(state *State, p *voidPaymentProps) []model.CalculationMessage {
	return needPayment(state, p.PaymentID)
})

var setPayer = exec(func(ctx context.Context, state *State, p *payerProps) error {
	sel := ledger.PayerSelection{External: p.External}
	if !p.External {
		sel.PassengerID = state.resolve(refPassenger, p.PassengerID)
	}
	return state.Session.SetPaymentPayer(ctx, state.resolve(refPayment, p.PaymentID), sel)
}).withCheck(func(state *State, p *payerProps) []model.CalculationMessage {
	if msgs := needPayment(state, p.PaymentID); msgs != nil {
		return msgs
	}
	if p.External {
		return nil
	}
	return requireRef(state, refPassenger, p.PassengerID, "passenger_id")
})

var setPayerDetails = exec(func(ctx context.Context, state *State, p *payerDetailsProps) error {
	return state.Session.SetPayerDetails(ctx, state.resolve(refPayment, p.PaymentID), p.Details)
}).withCheck(func(state *State, p *payerDetailsProps) []model.CalculationMessage {
	return needPayment(state, p.PaymentID)
})

var addCheck = op[paymentIDProps]{
	check: func(state *State, p *paymentIDProps) []model.CalculationMessage {
		return needPayment(state, p.PaymentID)
	},
	apply: func(ctx context.Context, state *State, p *paymentIDProps) ([]model.CalculationMessage, error) {
		c, err := state.Session.AddCheck(ctx, state.resolve(refPayment, p.PaymentID))
		if err != nil {
			return nil, err
		}
		state.remember(refCheck, c.ID)
		return []model.CalculationMessage{info("CHECK_ADDED", c.ID)}, nil
	},
}

var editCheck = exec(func(ctx context.Context, state *State, p *checkProps) error {
	p.Check.ID = state.resolve(refCheck, p.Check.ID)
	return state.Session.EditCheck(ctx, state.resolve(refPayment, p.PaymentID), p.Check)
}).withCheck(func(state *State, p *checkProps) []model.CalculationMessage {
	if msgs := needPayment(state, p.PaymentID); msgs != nil {
		return msgs
	}
	return requireRef(state, refCheck, p.Check.ID, "check.id")
})

var removeCheck = exec(func(ctx context.Context, state *State, p *checkIDProps) error {
	return state.Session.RemoveCheck(ctx, state.resolve(refPayment, p.PaymentID), state.resolve(refCheck, p.CheckID))
}).withCheck(func(state *State, p *checkIDProps) []model.CalculationMessage {
	if msgs := needPayment(state, p.PaymentID); msgs != nil {
		return msgs
	}
	return requireRef(state, refCheck, p.CheckID, "check_id")
})

var setCurrency = exec(func(ctx context.Context, state *State, p *currencyProps) error {
	return state.Session.SetCurrency(ctx, p.Currency)
}).withCheck(func(state *State, p *currencyProps) []model.CalculationMessage {
	return checkCurrency(p.Currency)
})

var addInstallment = op[installmentProps]{
	check: func(state *State, p *installmentProps) []model.CalculationMessage {
		if p.Amount <= 0 {
			return []model.CalculationMessage{critical("INVALID_AMOUNT", "Installment amount must be positive")}
		}
		return nil
	},
	apply: func(ctx context.Context, state *State, p *installmentProps) ([]model.CalculationMessage, error) {
		inst, err := state.Session.AddInstallment(ctx, p.Amount, p.DueDate)
		if err != nil {
			return nil, err
		}
		state.remember(refInstallment, inst.ID)
		return []model.CalculationMessage{info("INSTALLMENT_ADDED", inst.ID)}, nil
	},
}

var markInstallmentPaid = exec(func(ctx context.Context, state *State, p *installmentIDProps) error {
	return state.Session.MarkInstallmentPaid(ctx, state.resolve(refInstallment, p.InstallmentID))
}).withCheck(func(state *State, p *installmentIDProps) []model.CalculationMessage {
	return requireRef(state, refInstallment, p.InstallmentID, "installment_id")
})

var removeInstallment = exec(func(ctx context.Context, state *State, p *installmentIDProps) error {
	return state.Session.RemoveInstallment(ctx, state.resolve(refInstallment, p.InstallmentID))
}).withCheck(func(state *State, p *installmentIDProps) []model.CalculationMessage {
	return requireRef(state, refInstallment, p.InstallmentID, "installment_id")
})
