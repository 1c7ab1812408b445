package reconcile

import (
	"strings"

	"dossier-engine/internal/model"
)

// Sentinel values written into TripItem.SolvexStatus.
const (
	StatusChecking = "Checking..."
	StatusNotFound = "Nije pronađeno"
	StatusError    = "Greška"
)

// MapExternalStatus translates a partner reservation status into the dossier
// status it suggests. Unknown statuses suggest nothing.
func MapExternalStatus(external string) (model.Status, bool) {
	switch strings.ToLower(strings.TrimSpace(external)) {
	case "canceled", "cancelled":
		return model.StatusCanceled, true
	case "confirmed", "active":
		return model.StatusActive, true
	}
	return "", false
}
