package domain

// Order statuses. An order is created pending and either confirmed (payment
// verified, or COD accepted) or cancelled; it never goes back.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderCancelled = "cancelled"

	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"

	PayOnline = "online"
	PayCOD    = "cod"
)

type Order struct {
	ID             string  `db:"id"`
	Receipt        string  `db:"receipt"`
	UserID         string  `db:"user_id"`
	Subtotal       float64 `db:"subtotal"`
	Shipping       float64 `db:"shipping"`
	Total          float64 `db:"total"`
	PaymentMethod  string  `db:"payment_method"`
	Status         string  `db:"status"`
	PaymentStatus  string  `db:"payment_status"`
	PaymentID      string  `db:"payment_id"`
	GatewayOrderID string  `db:"gateway_order_id"`
	Note           string  `db:"note"`

	// Shipping address snapshot, copied from the user's address at placement.
	ShipName   string `db:"ship_name"`
	ShipStreet string `db:"ship_street"`
	ShipCity   string `db:"ship_city"`
	ShipState  string `db:"ship_state"`
	ShipZip    string `db:"ship_zip"`
	ShipPhone  string `db:"ship_phone"`

	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// OrderItem is a snapshot: name and unit price are copied at order-creation
// time and never follow later product edits.
type OrderItem struct {
	OrderID   string  `db:"order_id"`
	ProductID string  `db:"product_id"`
	Name      string  `db:"name"`
	Qty       int     `db:"qty"`
	Price     float64 `db:"price"`
	Size      string  `db:"size"`
	Color     string  `db:"color"`
}

func (i OrderItem) LineTotal() float64 { return i.Price * float64(i.Qty) }
