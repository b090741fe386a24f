package orders

import "fmt"

func validateCreate(ownerID string, in CreateOrderInput) error {
	if ownerID == "" {
		return validation("owner is required")
	}
	if len(in.Items) == 0 || !in.ShippingAddress.Complete() || in.PaymentMethod == "" || in.Total == 0 {
		return validation("missing required fields")
	}
	if !in.PaymentMethod.Valid() {
		return validation(fmt.Sprintf("unknown payment method %q", in.PaymentMethod))
	}
	for i, it := range in.Items {
		if it.Quantity <= 0 {
			return validation(fmt.Sprintf("item %d: quantity must be greater than zero", i))
		}
		if it.UnitPrice < 0 {
			return validation(fmt.Sprintf("item %d: price cannot be negative", i))
		}
	}
	f := in.Financials
	if f.Subtotal < 0 || f.ShippingFee < 0 || f.Discount < 0 || f.Total < 0 {
		return validation("amounts cannot be negative")
	}
	if f.Total != f.Subtotal-f.Discount+f.ShippingFee {
		return validation("total must equal subtotal - discount + shipping")
	}
	return nil
}
