package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"dossier-engine/internal/apperr"
	"dossier-engine/internal/model"
)

const (
	ActionItemAdded         = "Dodavanje Stavke"
	ActionItemEdited        = "Izmena Stavke"
	ActionItemRemoved       = "Brisanje Stavke"
	ActionFlightLegs        = "Izmena Letova"
	ActionItemPassengerDrop = "Uklanjanje Putnika sa Stavke"
	ActionPassengersCopied  = "Kopiranje Putnika"
)

var (
	ErrInvalidTripType = errors.New("invalid trip type")
	ErrNegativePrice   = errors.New("prices must not be negative")
	ErrNotFlight       = errors.New("trip item is not a flight")
)

// AddTripItem appends an empty item of the given type carrying a copy of
// the current passenger list.
func (s *Session) AddTripItem(ctx context.Context, typ model.TripType) (model.TripItem, error) {
	if !typ.Valid() {
		return model.TripItem{}, apperr.New(apperr.CodeValidation, "session.add_trip_item", string(typ), ErrInvalidTripType)
	}
	var item model.TripItem
	err := s.mutate(ctx, func(d *model.Dossier) error {
		item = model.TripItem{
			ID:         uuid.NewString(),
			Type:       typ,
			Passengers: model.CloneSlice(d.Passengers),
		}
		if typ == model.TripFlight {
			item.Flight = &model.FlightItinerary{Legs: []model.FlightLeg{}}
		}
		d.TripItems = model.Append(d.TripItems, item)
		s.audit.Record(d, ActionItemAdded,
			fmt.Sprintf("Nova stavka tipa \"%s\" je dodata. Svi putnici su automatski dodeljeni.", typ), model.SeverityInfo)
		return nil
	})
	if err != nil {
		return model.TripItem{}, err
	}
	return item.Clone(), nil
}

// UpdateTripItem replaces an item's fields. Changing away from the flight
// type drops its legs; a flight item sent without legs keeps the stored ones.
func (s *Session) UpdateTripItem(ctx context.Context, item model.TripItem) error {
	if !item.Type.Valid() {
		return apperr.New(apperr.CodeValidation, "session.update_trip_item", string(item.Type), ErrInvalidTripType)
	}
	if item.NetPrice < 0 || item.BruttoPrice < 0 {
		return apperr.New(apperr.CodeValidation, "session.update_trip_item", item.ID, ErrNegativePrice)
	}
	return s.mutate(ctx, func(d *model.Dossier) error {
		next, err := model.ReplaceByID(d.TripItems, item.ID, func(old model.TripItem) (model.TripItem, error) {
			c := item.Clone()
			switch {
			case c.Type != model.TripFlight:
				c.Flight = nil
			case c.Flight == nil && old.Flight != nil:
				c.Flight = &model.FlightItinerary{Legs: model.CloneSlice(old.Flight.Legs)}
			case c.Flight == nil:
				c.Flight = &model.FlightItinerary{Legs: []model.FlightLeg{}}
			}
			return c, nil
		})
		if err != nil {
			return apperr.NotFound("session.update_trip_item", item.ID, err)
		}
		d.TripItems = next
		s.audit.Record(d, ActionItemEdited, fmt.Sprintf("Stavka \"%s\" (%s) je izmenjena.", item.Subject, item.Type), model.SeverityInfo)
		return nil
	})
}

func (s *Session) RemoveTripItem(ctx context.Context, id string) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		next, removed, err := model.RemoveByID(d.TripItems, id)
		if err != nil {
			return apperr.NotFound("session.remove_trip_item", id, err)
		}
		d.TripItems = next
		s.audit.Record(d, ActionItemRemoved, fmt.Sprintf("Stavka \"%s\" (%s) je uklonjena.", removed.Subject, removed.Type), model.SeverityDanger)
		return nil
	})
}

// SetFlightLegs replaces the itinerary of a flight item. Legs without an id get one.
func (s *Session) SetFlightLegs(ctx context.Context, itemID string, legs []model.FlightLeg) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		var subject string
		next, err := model.ReplaceByID(d.TripItems, itemID, func(it model.TripItem) (model.TripItem, error) {
			if it.Type != model.TripFlight {
				return it, apperr.New(apperr.CodeValidation, "session.set_flight_legs", itemID, ErrNotFlight)
			}
			c := it.Clone()
			out := make([]model.FlightLeg, len(legs))
			for i, l := range legs {
				if l.ID == "" {
					l.ID = uuid.NewString()
				}
				out[i] = l
			}
			c.Flight = &model.FlightItinerary{Legs: out}
			subject = c.Subject
			return c, nil
		})
		if errors.Is(err, model.ErrNotFound) {
			return apperr.NotFound("session.set_flight_legs", itemID, err)
		}
		if err != nil {
			return err
		}
		d.TripItems = next
		s.audit.Record(d, ActionFlightLegs,
			fmt.Sprintf("Letovi za stavku \"%s\" su ažurirani (%d segmenata).", subject, len(legs)), model.SeverityInfo)
		return nil
	})
}

// RemovePassengerFromItem drops one passenger copy from one item only.
func (s *Session) RemovePassengerFromItem(ctx context.Context, itemID, passengerID string) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		var removed model.Passenger
		next, err := model.ReplaceByID(d.TripItems, itemID, func(it model.TripItem) (model.TripItem, error) {
			c := it.Clone()
			pax, r, err := model.RemoveByID(c.Passengers, passengerID)
			if err != nil {
				return it, err
			}
			c.Passengers = pax
			removed = r
			return c, nil
		})
		if err != nil {
			return apperr.NotFound("session.remove_passenger_from_item", itemID+"/"+passengerID, err)
		}
		d.TripItems = next
		s.audit.Record(d, ActionItemPassengerDrop,
			fmt.Sprintf("Putnik %s je uklonjen sa stavke ID: %s.", removed.FullName(), itemID), model.SeverityInfo)
		return nil
	})
}

// CopyPassengersToItems replaces every item's passenger copies with the
// current dossier passenger list.
func (s *Session) CopyPassengersToItems(ctx context.Context) error {
	return s.mutate(ctx, func(d *model.Dossier) error {
		next := make([]model.TripItem, len(d.TripItems))
		for i, it := range d.TripItems {
			c := it.Clone()
			c.Passengers = model.CloneSlice(d.Passengers)
			next[i] = c
		}
		d.TripItems = next
		s.audit.Record(d, ActionPassengersCopied, "Svi putnici su kopirani u sve stavke rezervacije.", model.SeveritySuccess)
		return nil
	})
}
