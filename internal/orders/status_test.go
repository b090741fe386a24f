package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanCancel(t *testing.T) {
	assert.True(t, CanCancel(StatusPending))
	assert.True(t, CanCancel(StatusProcessing))
	assert.False(t, CanCancel(StatusShipping))
	assert.False(t, CanCancel(StatusDelivered))
	assert.False(t, CanCancel(StatusCancelled))
	assert.False(t, CanCancel("lost"))
}

func TestIsTerminal(t *testing.T) {
	for s, want := range map[Status]bool{
		StatusPending:    false,
		StatusProcessing: false,
		StatusShipping:   false,
		StatusDelivered:  true,
		StatusCancelled:  true,
		"lost":           false,
	} {
		assert.Equal(t, want, IsTerminal(s), s)
	}
}

func TestCanTransitionForwardPath(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusProcessing))
	assert.True(t, CanTransition(StatusProcessing, StatusShipping))
	assert.True(t, CanTransition(StatusShipping, StatusDelivered))
	assert.False(t, CanTransition(StatusShipping, StatusPending))
	assert.False(t, CanTransition(StatusDelivered, StatusShipping))
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "in transit", StatusShipping.Text())
	assert.Equal(t, "unknown", Status("lost").Text())
	for s := range validNext {
		assert.NotEqual(t, "unknown", s.Text(), s)
	}
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, PaymentCOD.Valid())
	assert.True(t, PaymentMomo.Valid())
	assert.False(t, PaymentMethod("card").Valid())
	assert.True(t, PaymentFailed.Valid())
	assert.False(t, PaymentStatus("refunded").Valid())
	assert.False(t, Status("").Valid())
}

func TestStockAdjustments(t *testing.T) {
	o := Order{Items: []LineItem{
		{ProductID: "a", Quantity: 2},
		{Quantity: 1},
		{ProductID: "b", Quantity: 3},
	}}

	assert.Equal(t, []Adjustment{
		{ProductID: "a", DeltaStock: -2, DeltaSold: 2},
		{ProductID: "b", DeltaStock: -3, DeltaSold: 3},
	}, o.stockAdjustments(-1))
	assert.Equal(t, []Adjustment{
		{ProductID: "a", DeltaStock: 2, DeltaSold: -2},
		{ProductID: "b", DeltaStock: 3, DeltaSold: -3},
	}, o.stockAdjustments(1))
}
