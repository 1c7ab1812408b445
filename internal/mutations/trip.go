package mutations

import (
	"context"
	"fmt"

	"dossier-engine/internal/model"
)

type addTripItemProps struct {
	Type model.TripType `json:"type"`
}

type tripItemProps struct {
	Item model.TripItem `json:"item"`
}

type itemIDProps struct {
	ItemID string `json:"item_id"`
}

type flightLegsProps struct {
	ItemID string            `json:"item_id"`
	Legs   []model.FlightLeg `json:"legs"`
}

type itemPassengerProps struct {
	ItemID      string `json:"item_id"`
	PassengerID string `json:"passenger_id"`
}

var addTripItem = op[addTripItemProps]{
	check: func(state *State, p *addTripItemProps) []model.CalculationMessage {
		if !p.Type.Valid() {
			return []model.CalculationMessage{critical("INVALID_TRIP_TYPE", fmt.Sprintf("Unknown trip item type %q", p.Type))}
		}
		return nil
	},
	apply: func(ctx context.Context, state *State, p *addTripItemProps) ([]model.CalculationMessage, error) {
		item, err := state.Session.AddTripItem(ctx, p.Type)
		if err != nil {
			return nil, err
		}
		state.remember(refItem, item.ID)
		return []model.CalculationMessage{info("TRIP_ITEM_ADDED", item.ID)}, nil
	},
}

// updateTripItem keeps the stored type and passenger copies when the request
// omits them.
var updateTripItem = exec(func(ctx context.Context, state *State, p *tripItemProps) error {
	p.Item.ID = state.resolve(refItem, p.Item.ID)
	if current, ok := model.FindByID(state.Session.Snapshot().TripItems, p.Item.ID); ok {
		if p.Item.Type == "" {
			p.Item.Type = current.Type
		}
		if p.Item.Passengers == nil {
			p.Item.Passengers = current.Passengers
		}
	}
	return state.Session.UpdateTripItem(ctx, p.Item)
}).withCheck(func(state *State, p *tripItemProps) []model.CalculationMessage {
	if msgs := requireRef(state, refItem, p.Item.ID, "item.id"); msgs != nil {
		return msgs
	}
	if p.Item.NetPrice < 0 || p.Item.BruttoPrice < 0 {
		return []model.CalculationMessage{critical("NEGATIVE_PRICE", "Prices must not be negative")}
	}
	if p.Item.BruttoPrice < p.Item.NetPrice {
		return []model.CalculationMessage{warning("NEGATIVE_MARGIN", "Brutto price is below the net price")}
	}
	return nil
})

var removeTripItem = exec(func(ctx context.Context, state *State, p *itemIDProps) error {
	return state.Session.RemoveTripItem(ctx, state.resolve(refItem, p.ItemID))
}).withCheck(func(state *State, p *itemIDProps) []model.CalculationMessage {
	return requireRef(state, refItem, p.ItemID, "item_id")
})

var setFlightLegs = exec(func(ctx context.Context, state *State, p *flightLegsProps) error {
	return state.Session.SetFlightLegs(ctx, state.resolve(refItem, p.ItemID), p.Legs)
}).withCheck(func(state *State, p *flightLegsProps) []model.CalculationMessage {
	return requireRef(state, refItem, p.ItemID, "item_id")
})

var removePassengerFromItem = exec(func(ctx context.Context, state *State, p *itemPassengerProps) error {
	return state.Session.RemovePassengerFromItem(ctx, state.resolve(refItem, p.ItemID), state.resolve(refPassenger, p.PassengerID))
}).withCheck(func(state *State, p *itemPassengerProps) []model.CalculationMessage {
	if msgs := requireRef(state, refItem, p.ItemID, "item_id"); msgs != nil {
		return msgs
	}
	return requireRef(state, refPassenger, p.PassengerID, "passenger_id")
})

var copyPassengersToItems = exec(func(ctx context.Context, state *State, _ *struct{}) error {
	return state.Session.CopyPassengersToItems(ctx)
})
