package mutations

import (
	"context"

	"dossier-engine/internal/model"
)

type bookerProps struct {
	Booker model.Booker `json:"booker"`
}

type passengerProps struct {
	Passenger model.Passenger `json:"passenger"`
}

type passengerIDProps struct {
	PassengerID string `json:"passenger_id"`
}

type customerTypeProps struct {
	CustomerType model.CustomerType `json:"customer_type"`
}

type languageProps struct {
	Language model.Language `json:"language"`
}

type notesProps struct {
	Notes model.Notes `json:"notes"`
}

type insuranceProps struct {
	Insurance model.Insurance `json:"insurance"`
}

type signInsuranceProps struct {
	ConfirmationText string `json:"confirmation_text"`
}

var setBooker = exec(func(ctx context.Context, state *State, p *bookerProps) error {
	return state.Session.SetBooker(ctx, p.Booker)
})

var addPassenger = op[passengerProps]{apply: func(ctx context.Context, state *State, p *passengerProps) ([]model.CalculationMessage, error) {
	added, err := state.Session.AddPassenger(ctx, p.Passenger)
	if err != nil {
		return nil, err
	}
	state.remember(refPassenger, added.ID)
	return []model.CalculationMessage{info("PASSENGER_ADDED", added.ID)}, nil
}}

var updatePassenger = exec(func(ctx context.Context, state *State, p *passengerProps) error {
	p.Passenger.ID = state.resolve(refPassenger, p.Passenger.ID)
	return state.Session.UpdatePassenger(ctx, p.Passenger)
}).withCheck(func(state *State, p *passengerProps) []model.CalculationMessage {
	return requireRef(state, refPassenger, p.Passenger.ID, "passenger.id")
})

var removePassenger = exec(func(ctx context.Context, state *State, p *passengerIDProps) error {
	return state.Session.RemovePassenger(ctx, state.resolve(refPassenger, p.PassengerID))
}).withCheck(func(state *State, p *passengerIDProps) []model.CalculationMessage {
	return requireRef(state, refPassenger, p.PassengerID, "passenger_id")
})

var copyBookerToPassengers = exec(func(ctx context.Context, state *State, _ *struct{}) error {
	return state.Session.CopyBookerToPassengers(ctx)
})

var setCustomerType = exec(func(ctx context.Context, state *State, p *customerTypeProps) error {
	return state.Session.SetCustomerType(ctx, p.CustomerType)
}).withCheck(func(state *State, p *customerTypeProps) []model.CalculationMessage {
	if !p.CustomerType.Valid() {
		return []model.CalculationMessage{critical("INVALID_CUSTOMER_TYPE", string(p.CustomerType))}
	}
	return nil
})

var setLanguage = exec(func(ctx context.Context, state *State, p *languageProps) error {
	return state.Session.SetLanguage(ctx, p.Language)
})

var setNotes = exec(func(ctx context.Context, state *State, p *notesProps) error {
	return state.Session.SetNotes(ctx, p.Notes)
})

var setInsurance = exec(func(ctx context.Context, state *State, p *insuranceProps) error {
	return state.Session.SetInsurance(ctx, p.Insurance)
})

var signInsurance = exec(func(ctx context.Context, state *State, p *signInsuranceProps) error {
	return state.Session.SignInsurance(ctx, p.ConfirmationText)
})
