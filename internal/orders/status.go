package orders

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipping   Status = "shipping"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "cod"  // cash on delivery
	PaymentBank PaymentMethod = "bank" // bank transfer
	PaymentMomo PaymentMethod = "momo" // mobile wallet
)

// Forward path of an order. UpdateStatus does not consult it (any known
// status is accepted while the order is still open); it documents the intended
// flow and drives IsTerminal / CanCancel.
var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusShipping: true, StatusCancelled: true},
	StatusShipping:   {StatusDelivered: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

var statusText = map[Status]string{
	StatusPending:    "awaiting confirmation",
	StatusProcessing: "being processed",
	StatusShipping:   "in transit",
	StatusDelivered:  "delivered",
	StatusCancelled:  "cancelled",
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// CanCancel reports whether an order in status s may still be cancelled.
func CanCancel(s Status) bool {
	return CanTransition(s, StatusCancelled)
}

// IsTerminal reports whether no further status change is accepted.
func IsTerminal(s Status) bool {
	next, ok := validNext[s]
	return ok && len(next) == 0
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Text is the customer-facing label of the status.
func (s Status) Text() string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return "unknown"
}

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentBank, PaymentMomo:
		return true
	}
	return false
}
