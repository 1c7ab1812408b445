package session

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"dossier-engine/internal/audit"
	"dossier-engine/internal/model"
	"dossier-engine/internal/reconcile"
)

const ActionSeeded = "Preuzimanje iz Pretrage"

// BookingPayload is what the search flow hands over when a result is booked.
type BookingPayload struct {
	Result                SearchResult `json:"selectedResult"`
	Search                SearchParams `json:"searchParams"`
	Room                  *Room        `json:"selectedRoom,omitempty"`
	Guests                []Guest      `json:"prefilledGuests,omitempty"`
	ExternalBookingCode   string       `json:"externalBookingCode,omitempty"`
	ExternalBookingID     string       `json:"externalBookingId,omitempty"`
	SpecialRequests       string       `json:"specialRequests,omitempty"`
	ConfirmationText      string       `json:"confirmationText,omitempty"`
	ConfirmationTimestamp string       `json:"confirmationTimestamp,omitempty"`
}

type SearchResult struct {
	Source   string  `json:"source"`
	Name     string  `json:"name"`
	Location string  `json:"location"`
	Stars    string  `json:"stars"`
	MealPlan string  `json:"mealPlan"`
	Price    float64 `json:"price"`
}

type SearchParams struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
	Adults   int    `json:"adults"`
	Children int    `json:"children"`
}

type Room struct {
	Name     string  `json:"name"`
	MealPlan string  `json:"mealPlan"`
	Price    float64 `json:"price"`
}

type Guest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	PassportNumber  string `json:"passportNumber"`
	DateOfBirth     string `json:"dateOfBirth"`
	Address         string `json:"address"`
	City            string `json:"city"`
	Country         string `json:"country"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	IsLeadPassenger bool   `json:"isLeadPassenger"`
}

// Seed starts a session on a dossier built from a booked search result.
func Seed(deps Deps, p BookingPayload) *Session {
	s := newSession(deps)

	ref := firstNonEmpty(p.ExternalBookingCode, p.ExternalBookingID)
	clientRef := ref
	if clientRef == "" {
		clientRef = fmt.Sprintf("REF-%d", rand.Intn(10000))
	}
	adults := p.Search.Adults
	if adults <= 0 {
		adults = 2
	}
	passengers := seedPassengers(p.Guests, adults, p.Search.Children)

	price := p.Result.Price
	roomName := "Standard Room"
	mealPlan := p.Result.MealPlan
	if p.Room != nil {
		if p.Room.Price > 0 {
			price = p.Room.Price
		}
		if p.Room.Name != "" {
			roomName = p.Room.Name
		}
		if mealPlan == "" {
			mealPlan = p.Room.MealPlan
		}
	}
	price = math.Round(price*100) / 100

	item := model.TripItem{
		ID:          uuid.NewString(),
		Type:        model.TripStay,
		Supplier:    p.Result.Source,
		SupplierRef: ref,
		Country:     seedCountry(p.Result.Location),
		City:        strings.TrimSpace(strings.Split(p.Result.Location, ",")[0]),
		Subject:     CleanSubject(p.Result.Name),
		Stars:       parseStars(p.Result.Stars),
		Details:     RoomDescription(roomName),
		MealPlan:    MealPlanDescription(strings.ReplaceAll(mealPlan, "Standard Room", "")),
		CheckIn:     p.Search.CheckIn,
		CheckOut:    p.Search.CheckOut,
		NetPrice:    price,
		BruttoPrice: price,
		Passengers:  model.CloneSlice(passengers),
	}
	if ref != "" && deps.Partner != "" && strings.Contains(strings.ToLower(item.Supplier), strings.ToLower(deps.Partner)) {
		item.SolvexStatus = reconcile.StatusChecking
	}

	d := &model.Dossier{
		CisCode:         newCisCode(),
		ClientReference: clientRef,
		Passengers:      passengers,
		TripItems:       []model.TripItem{item},
		Notes:           model.Notes{General: p.SpecialRequests},
		Insurance: model.Insurance{
			ConfirmationText:      p.ConfirmationText,
			ConfirmationTimestamp: p.ConfirmationTimestamp,
		},
	}
	if lead, ok := leadGuest(p.Guests); ok {
		d.Booker = model.Booker{
			FullName: strings.TrimSpace(lead.FirstName + " " + lead.LastName),
			Address:  lead.Address,
			City:     lead.City,
			Country:  lead.Country,
			IDNumber: lead.PassportNumber,
			Phone:    lead.Phone,
			Email:    lead.Email,
		}
	}
	d.Backfill()
	s.audit.WithOperator(audit.SystemOperator).Record(d, ActionSeeded,
		fmt.Sprintf("Dosije %s je kreiran iz pretrage: %s (%s).", d.CisCode, item.Subject, item.Supplier), model.SeverityInfo)
	s.d = d
	s.log = s.log.With("cisCode", d.CisCode)
	return s
}

func seedPassengers(guests []Guest, adults, children int) []model.Passenger {
	travelerType := func(i int) model.TravelerType {
		if i < adults {
			return model.TravelerAdult
		}
		return model.TravelerChild
	}
	if len(guests) > 0 {
		out := make([]model.Passenger, len(guests))
		for i, g := range guests {
			out[i] = model.Passenger{
				ID:        fmt.Sprintf("p-%d", i),
				FirstName: g.FirstName,
				LastName:  g.LastName,
				IDNumber:  g.PassportNumber,
				BirthDate: g.DateOfBirth,
				Type:      travelerType(i),
				Address:   g.Address,
				City:      g.City,
				Country:   g.Country,
				Phone:     g.Phone,
				Email:     g.Email,
			}
		}
		return out
	}
	if children < 0 {
		children = 0
	}
	out := make([]model.Passenger, adults+children)
	for i := range out {
		out[i] = model.Passenger{ID: fmt.Sprintf("p-%d", i), Type: travelerType(i)}
	}
	return out
}

func leadGuest(guests []Guest) (Guest, bool) {
	for _, g := range guests {
		if g.IsLeadPassenger {
			return g, true
		}
	}
	if len(guests) > 0 {
		return guests[0], true
	}
	return Guest{}, false
}

func seedCountry(location string) string {
	switch {
	case strings.Contains(location, "Grčka"):
		return "Grčka"
	case strings.Contains(location, ","):
		parts := strings.Split(location, ",")
		return strings.TrimSpace(parts[len(parts)-1])
	}
	return location
}

func parseStars(s string) int {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil {
		return 0
	}
	return n
}

var (
	reParens      = regexp.MustCompile(`\s*\(.*?\)\s*`)
	reNotDefined  = regexp.MustCompile(`(?i)Not defined`)
	reUnderscores = regexp.MustCompile(`_+`)
	reSpaces      = regexp.MustCompile(`\s+`)
)

// CleanSubject strips the noise supplier feeds put into hotel names.
func CleanSubject(name string) string {
	s := reParens.ReplaceAllString(name, " ")
	s = reNotDefined.ReplaceAllString(s, "")
	s = reUnderscores.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

var roomDescriptions = map[string]string{
	"DBL":    "Dvokrevetna soba (DBL)",
	"SGL":    "Jednokrevetna soba (SGL)",
	"TRP":    "Trokrevetna soba (TRP)",
	"QDPL":   "Četvorokrevetna soba (QDPL)",
	"APP":    "Apartman (APP)",
	"STUDIO": "Studio",
	"FAM":    "Porodična soba (FAM)",
}

func RoomDescription(code string) string {
	if d, ok := roomDescriptions[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return d
	}
	return code
}

var mealPlans = map[string]string{
	"HB":                  "HB - Polupansion",
	"POLUPANSION":         "HB - Polupansion",
	"BB":                  "BB - Noćenje sa Doručkom",
	"NOĆENJE SA DORUČKOM": "BB - Noćenje sa Doručkom",
	"FB":                  "FB - Pun Pansion",
	"PUN PANSION":         "FB - Pun Pansion",
	"AI":                  "AI - All Inclusive",
	"ALL INCLUSIVE":       "AI - All Inclusive",
	"UAI":                 "UAI - Ultra All Inclusive",
	"ULTRA ALL INCLUSIVE": "UAI - Ultra All Inclusive",
	"RO":                  "RO - Najam (Bez Ishrane)",
	"NAJAM":               "RO - Najam (Bez Ishrane)",
	"PA":                  "PA - Pun Pansion",
	"PP":                  "PP - Polupansion",
	"ND":                  "ND - Noćenje sa Doručkom",
}

// MealPlanDescription normalizes a board code or name to "CODE - Name".
func MealPlanDescription(plan string) string {
	raw := strings.TrimSpace(plan)
	p := strings.ToUpper(raw)
	if p == "" || strings.Contains(p, " - ") {
		return raw
	}
	if d, ok := mealPlans[p]; ok {
		return d
	}
	switch {
	case strings.Contains(p, "POLU"), strings.Contains(p, "HALF"):
		return "HB - Polupansion"
	case strings.Contains(p, "DORU"), strings.Contains(p, "BREAKFAST"):
		return "BB - Noćenje sa Doručkom"
	case strings.Contains(p, "ALL"), strings.Contains(p, "SVE"):
		return "AI - All Inclusive"
	}
	return raw
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
