package mutations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dossier-engine/internal/apperr"
	"dossier-engine/internal/ledger"
	"dossier-engine/internal/model"
	"dossier-engine/internal/session"
)

func TestRegistry(t *testing.T) {
	names := Names()
	assert.Len(t, names, 40)
	assert.True(t, sort.StringsAreSorted(names))

	for _, n := range names {
		h, ok := Get(n)
		assert.True(t, ok, n)
		assert.NotNil(t, h, n)
	}

	_, ok := Get("cancel_everything")
	assert.False(t, ok)
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"wrapped sentinel", apperr.Unauthorized("ledger.void", "p1", ledger.ErrWrongSecret), "WRONG_SECRET"},
		{"session sentinel", fmt.Errorf("set: %w", session.ErrPermission), "PERMISSION_DENIED"},
		{"not found", apperr.NotFound("session.passenger", "p9", nil), "NOT_FOUND"},
		{"external", apperr.External("supplier.lookup", errors.New("timeout")), "EXTERNAL_FAILURE"},
		{"validation", apperr.Validation("session.item", "bad dates"), "VALIDATION"},
		{"foreign error", errors.New("boom"), "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := fromError(tt.err)
			assert.Equal(t, model.LevelCritical, msg.Level)
			assert.Equal(t, tt.code, msg.Code)
			assert.Equal(t, tt.err.Error(), msg.Message)
		})
	}
}

func TestRefsResolveWithinBatch(t *testing.T) {
	state := NewState(nil, session.Operator{Name: "Nenad", Level: 6})

	assert.Equal(t, "", state.resolve(refPassenger, ""))
	msgs := requireRef(state, refPassenger, "", "passenger_id")
	require.Len(t, msgs, 1)
	assert.Equal(t, "MISSING_PASSENGER_ID", msgs[0].Code)

	state.remember(refPassenger, "p-1")
	assert.Equal(t, "p-1", state.resolve(refPassenger, ""))
	assert.Equal(t, "p-2", state.resolve(refPassenger, "p-2"), "explicit id wins")
	assert.Empty(t, requireRef(state, refPassenger, "", "passenger_id"))
	assert.Equal(t, "", state.resolve(refItem, ""), "kinds are independent")
}

func TestValidateWithoutDossier(t *testing.T) {
	state := NewState(nil, session.Operator{})
	h, ok := Get("add_passenger")
	require.True(t, ok)

	msgs := h.Validate(state, &model.Mutation{MutationDefinitionName: "add_passenger"})
	require.Len(t, msgs, 1)
	assert.Equal(t, "DOSSIER_NOT_FOUND", msgs[0].Code)
	assert.Equal(t, model.Situation{}, state.Situation())
}

func TestDecodeProps(t *testing.T) {
	var p passengerIDProps

	assert.Nil(t, decodeProps(&model.Mutation{}, &p))
	assert.Nil(t, decodeProps(&model.Mutation{MutationProperties: []byte(" null ")}, &p))

	require.Nil(t, decodeProps(&model.Mutation{MutationProperties: []byte(`{"passenger_id":"p-7"}`)}, &p))
	assert.Equal(t, "p-7", p.PassengerID)

	msg := decodeProps(&model.Mutation{MutationProperties: []byte(`{"passenger_id":`)}, &p)
	require.NotNil(t, msg)
	assert.Equal(t, "INVALID_PROPERTIES", msg.Code)
	assert.Equal(t, model.LevelCritical, msg.Level)
}

func TestCustomerTypeCheck(t *testing.T) {
	state := NewState(nil, session.Operator{})
	msgs := setCustomerType.check(state, &customerTypeProps{CustomerType: "Alien"})
	require.Len(t, msgs, 1)
	assert.Equal(t, "INVALID_CUSTOMER_TYPE", msgs[0].Code)
}

func TestExecReportsError(t *testing.T) {
	h := exec(func(context.Context, *State, *struct{}) error {
		return session.ErrClosed
	})
	msgs, err := h.apply(context.Background(), nil, &struct{}{})
	assert.Empty(t, msgs)
	assert.ErrorIs(t, err, session.ErrClosed)
}
