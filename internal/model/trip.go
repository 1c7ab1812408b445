package model

import (
	json "github.com/goccy/go-json"
)

type TripType string

const (
	TripStay     TripType = "Smestaj"
	TripFlight   TripType = "Avio karte"
	TripDynamic  TripType = "Dinamicki paket"
	TripTravel   TripType = "Putovanja"
	TripTransfer TripType = "Transfer"
	TripCharter  TripType = "Čarter"
	TripBus      TripType = "Bus"
	TripCruise   TripType = "Krstarenje"
)

var TripTypes = []TripType{TripStay, TripFlight, TripDynamic, TripTravel, TripTransfer, TripCharter, TripBus, TripCruise}

func (t TripType) Valid() bool {
	for _, v := range TripTypes {
		if v == t {
			return true
		}
	}
	return false
}

// TripItem is one purchasable component of the trip. Flight is the only
// type-specific variant and is non-nil only for TripFlight items.
type TripItem struct {
	ID              string
	Type            TripType
	Supplier        string
	SupplierRef     string
	Country         string
	City            string
	Subject         string
	Details         string
	MealPlan        string
	Stars           int
	CheckIn         string
	CheckOut        string
	NetPrice        float64
	BruttoPrice     float64
	PaymentDeadline string
	SolvexStatus    string
	SolvexKey       string
	Passengers      []Passenger
	Flight          *FlightItinerary
}

func (t TripItem) Key() string { return t.ID }

// Legs returns the flight legs for flight items and nil for every other type.
func (t TripItem) Legs() []FlightLeg {
	if t.Flight == nil {
		return nil
	}
	return t.Flight.Legs
}

type FlightItinerary struct {
	Legs []FlightLeg
}

type FlightLeg struct {
	ID           string `json:"id"`
	DepAirport   string `json:"depAirport"`
	DepDate      string `json:"depDate"`
	DepTime      string `json:"depTime"`
	ArrAirport   string `json:"arrAirport"`
	ArrDate      string `json:"arrDate"`
	ArrTime      string `json:"arrTime"`
	FlightNumber string `json:"flightNumber"`
	Airline      string `json:"airline"`
	Class        string `json:"class,omitempty"`
	Baggage      string `json:"baggage,omitempty"`
}

func (l FlightLeg) Key() string { return l.ID }

// tripItemWire is the flat persisted shape; flightLegs sits next to the common fields.
type tripItemWire struct {
	ID              string      `json:"id"`
	Type            TripType    `json:"type"`
	Supplier        string      `json:"supplier"`
	SupplierRef     string      `json:"supplierRef,omitempty"`
	Country         string      `json:"country,omitempty"`
	City            string      `json:"city,omitempty"`
	Subject         string      `json:"subject"`
	Details         string      `json:"details"`
	MealPlan        string      `json:"mealPlan,omitempty"`
	Stars           int         `json:"stars,omitempty"`
	CheckIn         string      `json:"checkIn"`
	CheckOut        string      `json:"checkOut"`
	NetPrice        float64     `json:"netPrice"`
	BruttoPrice     float64     `json:"bruttoPrice"`
	PaymentDeadline string      `json:"paymentDeadline,omitempty"`
	SolvexStatus    string      `json:"solvexStatus,omitempty"`
	SolvexKey       string      `json:"solvexKey,omitempty"`
	Passengers      []Passenger `json:"passengers,omitempty"`
	FlightLegs      []FlightLeg `json:"flightLegs,omitempty"`
}

func (t TripItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(tripItemWire{
		ID:              t.ID,
		Type:            t.Type,
		Supplier:        t.Supplier,
		SupplierRef:     t.SupplierRef,
		Country:         t.Country,
		City:            t.City,
		Subject:         t.Subject,
		Details:         t.Details,
		MealPlan:        t.MealPlan,
		Stars:           t.Stars,
		CheckIn:         t.CheckIn,
		CheckOut:        t.CheckOut,
		NetPrice:        t.NetPrice,
		BruttoPrice:     t.BruttoPrice,
		PaymentDeadline: t.PaymentDeadline,
		SolvexStatus:    t.SolvexStatus,
		SolvexKey:       t.SolvexKey,
		Passengers:      t.Passengers,
		FlightLegs:      t.Legs(),
	})
}

// UnmarshalJSON drops flight legs found on a non-flight item.
func (t *TripItem) UnmarshalJSON(data []byte) error {
	var w tripItemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = TripItem{
		ID:              w.ID,
		Type:            w.Type,
		Supplier:        w.Supplier,
		SupplierRef:     w.SupplierRef,
		Country:         w.Country,
		City:            w.City,
		Subject:         w.Subject,
		Details:         w.Details,
		MealPlan:        w.MealPlan,
		Stars:           w.Stars,
		CheckIn:         w.CheckIn,
		CheckOut:        w.CheckOut,
		NetPrice:        w.NetPrice,
		BruttoPrice:     w.BruttoPrice,
		PaymentDeadline: w.PaymentDeadline,
		SolvexStatus:    w.SolvexStatus,
		SolvexKey:       w.SolvexKey,
		Passengers:      w.Passengers,
	}
	if w.Type == TripFlight {
		t.Flight = &FlightItinerary{Legs: w.FlightLegs}
	}
	return nil
}
