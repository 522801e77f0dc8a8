package repos_test

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"linenloft/internal/domain"
	"linenloft/internal/repos"
)

// placedOrder reserves stock for two wool-throw variants (3+2 of the 12
// seeded units) and persists the matching confirmed order for u-demo.
func placedOrder(t *testing.T, db *sqlx.DB) (*repos.OrderRepo, string) {
	t.Helper()
	prods := repos.NewProductRepo(db)
	orders := repos.NewOrderRepo(db)

	for _, qty := range []int{3, 2} {
		ok, err := prods.DecrementStock("prod-wool-throw", qty)
		if err != nil || !ok {
			t.Fatalf("reserve %d: ok=%v err=%v", qty, ok, err)
		}
	}

	o := domain.Order{
		ID: "ord-cancel-1", Receipt: "LL-TEST00001", UserID: "u-demo",
		Subtotal: 10995, Total: 10995,
		PaymentMethod: domain.PayCOD,
		Status:        domain.OrderConfirmed,
		PaymentStatus: domain.PaymentUnpaid,
	}
	items := []domain.OrderItem{
		{OrderID: o.ID, ProductID: "prod-wool-throw", Name: "Wool Throw", Qty: 3, Price: 2199, Size: "Standard", Color: "Oat"},
		{OrderID: o.ID, ProductID: "prod-wool-throw", Name: "Wool Throw", Qty: 2, Price: 2199, Size: "Standard", Color: "Rust"},
	}
	if err := orders.Create(o, items); err != nil {
		t.Fatal(err)
	}
	return orders, o.ID
}

func stockOf(t *testing.T, db *sqlx.DB, productID string) int {
	t.Helper()
	var qty int
	if err := db.Get(&qty, `SELECT stock_qty FROM products WHERE id = ?`, productID); err != nil {
		t.Fatal(err)
	}
	return qty
}

func TestCancelReturnsStockOnce(t *testing.T) {
	db := memdb(t)
	orders, oid := placedOrder(t, db)

	if got := stockOf(t, db, "prod-wool-throw"); got != 7 {
		t.Fatalf("want 7 left after reserving 5 of 12, got %d", got)
	}

	if err := orders.UpdateStatus(oid, domain.OrderCancelled); err != nil {
		t.Fatal(err)
	}
	if got := stockOf(t, db, "prod-wool-throw"); got != 12 {
		t.Fatalf("cancel must return both lines' units, got %d want 12", got)
	}

	// cancelled is terminal; a repeat must not restore again
	if err := orders.UpdateStatus(oid, domain.OrderCancelled); err != nil {
		t.Fatal(err)
	}
	if got := stockOf(t, db, "prod-wool-throw"); got != 12 {
		t.Fatalf("double cancel restored stock twice: got %d want 12", got)
	}

	// nor can a cancelled order be revived through the status form
	if err := orders.UpdateStatus(oid, domain.OrderConfirmed); err != nil {
		t.Fatal(err)
	}
	o, _, err := orders.Get(oid)
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.OrderCancelled {
		t.Fatalf("cancelled order must stay cancelled, got %q", o.Status)
	}
}

func TestMarkPaidRefusesNonPendingOrder(t *testing.T) {
	db := memdb(t)
	orders, oid := placedOrder(t, db)

	if err := orders.UpdateStatus(oid, domain.OrderCancelled); err != nil {
		t.Fatal(err)
	}

	// the admin cancelled while a payment was in flight
	if err := orders.MarkPaid(oid, "pay_late1"); err != repos.ErrOrderNotPending {
		t.Fatalf("want ErrOrderNotPending for a cancelled order, got %v", err)
	}
	o, _, err := orders.Get(oid)
	if err != nil {
		t.Fatal(err)
	}
	if o.PaymentStatus != domain.PaymentUnpaid || o.PaymentID != "" {
		t.Fatalf("cancelled order must stay unpaid: %+v", o)
	}
}
