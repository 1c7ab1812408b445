package mutations

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"dossier-engine/internal/apperr"
	"dossier-engine/internal/ledger"
	"dossier-engine/internal/model"
	"dossier-engine/internal/session"
)

var jsonNull = []byte("null")

// decodeProps unmarshals mutation_properties into p. Missing properties
// decode as an empty object.
func decodeProps(mutation *model.Mutation, p interface{}) *model.CalculationMessage {
	raw := bytes.TrimSpace(mutation.MutationProperties)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return nil
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return &model.CalculationMessage{
			Level:   model.LevelCritical,
			Code:    "INVALID_PROPERTIES",
			Message: fmt.Sprintf("mutation_properties could not be read: %v", err),
		}
	}
	return nil
}

func critical(code, message string) model.CalculationMessage {
	return model.CalculationMessage{Level: model.LevelCritical, Code: code, Message: message}
}

func warning(code, message string) model.CalculationMessage {
	return model.CalculationMessage{Level: model.LevelWarning, Code: code, Message: message}
}

func info(code, message string) model.CalculationMessage {
	return model.CalculationMessage{Level: model.LevelInfo, Code: code, Message: message}
}

var sentinelCodes = []struct {
	err  error
	code string
}{
	{ledger.ErrWrongSecret, "WRONG_SECRET"},
	{ledger.ErrVoided, "PAYMENT_VOIDED"},
	{ledger.ErrAlreadyCommitted, "PAYMENT_ALREADY_COMMITTED"},
	{ledger.ErrNotCheckPayment, "NOT_A_CHECK_PAYMENT"},
	{ledger.ErrUnknownPassenger, "UNKNOWN_PASSENGER"},
	{ledger.ErrInvalidCurrency, "INVALID_CURRENCY"},
	{ledger.ErrInvalidMethod, "INVALID_PAYMENT_METHOD"},
	{session.ErrPermission, "PERMISSION_DENIED"},
	{session.ErrInsuranceSigned, "INSURANCE_ALREADY_SIGNED"},
	{session.ErrUnknownNationality, "UNKNOWN_NATIONALITY"},
	{session.ErrInvalidTravelerType, "INVALID_TRAVELER_TYPE"},
	{session.ErrInvalidTripType, "INVALID_TRIP_TYPE"},
	{session.ErrNegativePrice, "NEGATIVE_PRICE"},
	{session.ErrNotFlight, "NOT_A_FLIGHT"},
	{session.ErrUnknownDocument, "UNKNOWN_DOCUMENT"},
	{session.ErrUnknownChannel, "UNKNOWN_CHANNEL"},
	{session.ErrClosed, "SESSION_CLOSED"},
}

// fromError turns an operation failure into a CRITICAL message. Known
// sentinels get their own code, everything else is coded by its apperr class.
func fromError(err error) model.CalculationMessage {
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return critical(s.code, err.Error())
		}
	}
	code := apperr.CodeOf(err)
	switch code {
	case apperr.CodeNotFound:
		return critical("NOT_FOUND", err.Error())
	case apperr.CodeExternal:
		return critical("EXTERNAL_FAILURE", err.Error())
	}
	return critical(strings.ToUpper(string(code)), err.Error())
}
