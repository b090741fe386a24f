package orders

import "time"

type LineItem struct {
	ProductID string `json:"product,omitempty"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"price"`
	Image     string `json:"image,omitempty"`
}

type Address struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	District string `json:"district"`
	Ward     string `json:"ward"`
}

// Complete reports whether every address field is filled in.
func (a Address) Complete() bool {
	for _, f := range []string{a.FullName, a.Email, a.Phone, a.Address, a.City, a.District, a.Ward} {
		if f == "" {
			return false
		}
	}
	return true
}

// Financials are amounts in the store currency (VND, no minor unit).
type Financials struct {
	Subtotal    int64 `json:"subtotal"`
	ShippingFee int64 `json:"shipping"`
	Discount    int64 `json:"discount"`
	Total       int64 `json:"total"`
}

type TimelineEntry struct {
	Status  Status    `json:"status"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

type Order struct {
	ID              string        `json:"id"`
	OrderNumber     string        `json:"orderNumber"`
	OwnerID         string        `json:"user"`
	Items           []LineItem    `json:"items"`
	ShippingAddress Address       `json:"shippingAddress"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	Financials
	Status    Status          `json:"status"`
	Timeline  []TimelineEntry `json:"timeline"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Owner is the summarized identity attached to admin listings.
type Owner struct {
	ID        string `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
}

type OrderWithOwner struct {
	Order
	Owner Owner `json:"owner"`
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]LineItem(nil), o.Items...)
	c.Timeline = append([]TimelineEntry(nil), o.Timeline...)
	return &c
}

func (o *Order) appendTimeline(s Status, at time.Time, msg string) {
	o.Timeline = append(o.Timeline, TimelineEntry{Status: s, Date: at, Message: msg})
	o.UpdatedAt = at
}

// stockAdjustments turns the line items into per-product counter deltas.
// sign is -1 when stock leaves the shelf (order placed) and +1 when it returns.
func (o *Order) stockAdjustments(sign int) []Adjustment {
	out := make([]Adjustment, 0, len(o.Items))
	for _, it := range o.Items {
		if it.ProductID == "" {
			continue
		}
		out = append(out, Adjustment{
			ProductID:  it.ProductID,
			DeltaStock: sign * it.Quantity,
			DeltaSold:  -sign * it.Quantity,
		})
	}
	return out
}
