package mutations

import "sort"

var registry = map[string]MutationHandler{
	"create_dossier":             &CreateDossierHandler{},
	"seed_dossier":               &SeedDossierHandler{},
	"set_status":                 setStatus,
	"evaluate_status":            evaluateStatus,
	"save_dossier":               saveDossier,
	"resync_item":                resyncItem,
	"set_booker":                 setBooker,
	"add_passenger":              addPassenger,
	"update_passenger":           updatePassenger,
	"remove_passenger":           removePassenger,
	"copy_booker_to_passengers":  copyBookerToPassengers,
	"set_customer_type":          setCustomerType,
	"set_language":               setLanguage,
	"set_notes":                  setNotes,
	"set_insurance":              setInsurance,
	"sign_insurance":             signInsurance,
	"add_trip_item":              addTripItem,
	"update_trip_item":           updateTripItem,
	"remove_trip_item":           removeTripItem,
	"set_flight_legs":            setFlightLegs,
	"remove_passenger_from_item": removePassengerFromItem,
	"copy_passengers_to_items":   copyPassengersToItems,
	"set_currency":               setCurrency,
	"add_payment":                addPayment,
	"set_payment_amount":         setPaymentAmount,
	"set_payment_currency":       setPaymentCurrency,
	"edit_payment":               editPayment,
	"commit_payment":             commitPayment,
	"void_payment":               voidPayment,
	"set_payer":                  setPayer,
	"set_payer_details":          setPayerDetails,
	"add_check":                  addCheck,
	"edit_check":                 editCheck,
	"remove_check":               removeCheck,
	"add_installment":            addInstallment,
	"mark_installment_paid":      markInstallmentPaid,
	"remove_installment":         removeInstallment,
	"render_document":            renderDocument,
	"mark_document_sent":         markDocumentSent,
	"set_document_language":      setDocumentLanguage,
}

func Get(name string) (MutationHandler, bool) {
	h, ok := registry[name]
	return h, ok
}

// Names lists the registered mutation definitions in order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
