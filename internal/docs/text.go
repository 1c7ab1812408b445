package docs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dossier-engine/internal/finance"
	"dossier-engine/internal/model"
)

var titles = map[model.DocumentType]string{
	model.DocContract:  "Ugovor o putovanju",
	model.DocVoucher:   "Vaučer",
	model.DocItinerary: "Plan putovanja",
	model.DocPaxList:   "Spisak putnika",
	model.DocProforma:  "Profaktura",
	model.DocAdvance:   "Avansni račun",
	model.DocFinal:     "Konačni račun",
	model.DocPayment:   "Potvrda o uplati",
}

// TextRenderer produces the plain-text itinerary that operators paste into
// chat apps and e-mails.
type TextRenderer struct {
	Agency string
}

func (r TextRenderer) Render(ctx context.Context, docType model.DocumentType, snapshot *model.Dossier, lang model.Language) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if snapshot == nil {
		return Document{}, fmt.Errorf("render %s: nil snapshot", docType)
	}
	title, ok := titles[docType]
	if !ok {
		return Document{}, fmt.Errorf("render: unknown document type %q", docType)
	}
	return Document{
		Type:        docType,
		Language:    lang,
		Title:       fmt.Sprintf("%s - Dossier %s", title, snapshot.CisCode),
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(Itinerary(snapshot, r.Agency)),
	}, nil
}

// Itinerary formats the trip plan of d.
func Itinerary(d *model.Dossier, agency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- PLAN PUTOVANJA / DOSSIER %s ---\n\n", d.CisCode)
	for i, it := range d.TripItems {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, strings.ToUpper(string(it.Type)), it.Subject)
		fmt.Fprintf(&b, "> DATUM: %s DO %s\n", formatDate(it.CheckIn), formatDate(it.CheckOut))
		fmt.Fprintf(&b, "> LOKACIJA: %s, %s\n", it.City, it.Country)
		fmt.Fprintf(&b, "> USLUGA: %s - %s\n", orNA(it.MealPlan), orNA(it.Details))
		for _, leg := range it.Legs() {
			fmt.Fprintf(&b, ">   LET %s %s: %s %s %s -> %s %s %s\n",
				leg.Airline, leg.FlightNumber,
				leg.DepAirport, formatDate(leg.DepDate), leg.DepTime,
				leg.ArrAirport, formatDate(leg.ArrDate), leg.ArrTime)
		}
		names := make([]string, 0, len(it.Passengers))
		for _, p := range it.Passengers {
			names = append(names, p.FullName())
		}
		pax := strings.Join(names, ", ")
		if pax == "" {
			pax = "Nema dodeljenih putnika"
		}
		fmt.Fprintf(&b, "> PUTNICI: %s\n\n", pax)
	}
	fmt.Fprintf(&b, "UKUPNO ZA NAPLATU: %.2f %s\n", finance.Of(d).TotalBrutto, d.Finance.Currency)
	if agency != "" {
		fmt.Fprintf(&b, "\nHvala što putujete sa %s!", agency)
	}
	return b.String()
}

func formatDate(s string) string {
	if s == "" {
		return "N/A"
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return t.Format("02.01.2006.")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
