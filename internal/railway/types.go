package railway

import "time"

// Event is owned by the Railway backend; it is never persisted locally
// beyond a request's lifetime.
type Event struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	StartTime        time.Time `json:"start_time"`
	Venue            string    `json:"venue"`
	Tier1Quantity    int       `json:"tier1_quantity"`
	Tier1AdultPrice  float64   `json:"tier1_adult_price"`
	Tier1FamilyPrice float64   `json:"tier1_family_price"`
	Tier2Quantity    int       `json:"tier2_quantity"`
	Tier2AdultPrice  float64   `json:"tier2_adult_price"`
	Tier2FamilyPrice float64   `json:"tier2_family_price"`
	Tier3Quantity    int       `json:"tier3_quantity"`
	Tier3AdultPrice  float64   `json:"tier3_adult_price"`
	Tier3FamilyPrice float64   `json:"tier3_family_price"`
	TicketsSold      int       `json:"tickets_sold"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"
)

type TicketOrder struct {
	ID                   string     `json:"id"`
	EventID              string     `json:"event_id"`
	CustomerName         string     `json:"customer_name"`
	CustomerEmail        string     `json:"customer_email"`
	CustomerPhone        string     `json:"customer_phone"`
	AdultQuantity        int        `json:"adult_quantity"`
	ChildQuantity        int        `json:"child_quantity"`
	FamilyQuantity       int        `json:"family_quantity"`
	BarCredits           int        `json:"bar_credits"`
	Status               string     `json:"status"`
	ConfirmationCode     string     `json:"confirmation_code"`
	MonerisTransactionID string     `json:"moneris_transaction_id"`
	TotalPrice           float64    `json:"total_price"`
	RefundAmount         *float64   `json:"refund_amount,omitempty"`
	RefundReason         string     `json:"refund_reason,omitempty"`
	RefundedAt           *time.Time `json:"refunded_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

type PricingUpdate struct {
	Tier1Quantity    *int     `json:"tier1_quantity,omitempty"`
	Tier1AdultPrice  *float64 `json:"tier1_adult_price,omitempty"`
	Tier1FamilyPrice *float64 `json:"tier1_family_price,omitempty"`
	Tier2Quantity    *int     `json:"tier2_quantity,omitempty"`
	Tier2AdultPrice  *float64 `json:"tier2_adult_price,omitempty"`
	Tier2FamilyPrice *float64 `json:"tier2_family_price,omitempty"`
	Tier3Quantity    *int     `json:"tier3_quantity,omitempty"`
	Tier3AdultPrice  *float64 `json:"tier3_adult_price,omitempty"`
	Tier3FamilyPrice *float64 `json:"tier3_family_price,omitempty"`
}

type Staff struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Shift struct {
	ID      string    `json:"id"`
	StaffID string    `json:"staff_id"`
	EventID string    `json:"event_id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Station string    `json:"station"`
}
