package services_test

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"linenloft/internal/repos"
	"linenloft/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newCartSvc(db *sqlx.DB) *services.CartService {
	return services.NewCartService(repos.NewCartRepo(db), repos.NewProductRepo(db), 999, 50)
}

func TestCartSameVariantIncrements(t *testing.T) {
	db := memdb(t)
	cart := newCartSvc(db)
	sid := "sid-cart-1"

	// seeded: prod-sateen-400, discounted 1199
	if err := cart.Add(sid, "prod-sateen-400", "Queen", "Ivory", 1); err != nil {
		t.Fatal(err)
	}
	if err := cart.Add(sid, "prod-sateen-400", "Queen", "Ivory", 2); err != nil {
		t.Fatal(err)
	}

	view, err := cart.View(sid)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("same (product,size,color) should merge into one line, got %d", len(view.Lines))
	}
	if view.Lines[0].Qty != 3 {
		t.Fatalf("want qty 3, got %d", view.Lines[0].Qty)
	}
}

func TestCartDifferentVariantsAreSeparateLines(t *testing.T) {
	db := memdb(t)
	cart := newCartSvc(db)
	sid := "sid-cart-2"

	if err := cart.Add(sid, "prod-sateen-400", "Queen", "Ivory", 1); err != nil {
		t.Fatal(err)
	}
	if err := cart.Add(sid, "prod-sateen-400", "King", "Ivory", 1); err != nil {
		t.Fatal(err)
	}
	if err := cart.Add(sid, "prod-sateen-400", "Queen", "Slate", 1); err != nil {
		t.Fatal(err)
	}

	view, err := cart.View(sid)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Lines) != 3 {
		t.Fatalf("want 3 distinct variant lines, got %d", len(view.Lines))
	}
	if view.Count != 3 {
		t.Fatalf("want 3 units, got %d", view.Count)
	}
}

func TestCartTotalsUseLivePriceAndShippingRule(t *testing.T) {
	db := memdb(t)
	cart := newCartSvc(db)
	sid := "sid-cart-3"

	// one percale sheet at 749: below the 999 threshold
	if err := cart.Add(sid, "prod-percale-200", "Queen", "White", 1); err != nil {
		t.Fatal(err)
	}
	view, err := cart.View(sid)
	if err != nil {
		t.Fatal(err)
	}
	if view.Totals.Subtotal != 749 || view.Totals.Shipping != 50 || view.Totals.Total != 799 {
		t.Fatalf("bad totals below threshold: %+v", view.Totals)
	}

	// bump qty to 3: 2247 clears the threshold, shipping drops off
	if err := cart.UpdateQty(sid, view.Lines[0].ItemID, 3); err != nil {
		t.Fatal(err)
	}
	view, err = cart.View(sid)
	if err != nil {
		t.Fatal(err)
	}
	if view.Totals.Subtotal != 2247 || view.Totals.Shipping != 0 {
		t.Fatalf("bad totals above threshold: %+v", view.Totals)
	}
}

func TestCartRejectsUnknownProduct(t *testing.T) {
	db := memdb(t)
	cart := newCartSvc(db)

	err := cart.Add("sid-cart-4", "prod-nope", "", "", 1)
	if _, ok := err.(services.ErrProductGone); !ok {
		t.Fatalf("want ErrProductGone, got %v", err)
	}
}

func TestCartRemoveAndClear(t *testing.T) {
	db := memdb(t)
	cart := newCartSvc(db)
	sid := "sid-cart-5"

	if err := cart.Add(sid, "prod-percale-200", "Queen", "White", 1); err != nil {
		t.Fatal(err)
	}
	if err := cart.Add(sid, "prod-wool-throw", "Standard", "Oat", 1); err != nil {
		t.Fatal(err)
	}
	view, _ := cart.View(sid)
	if err := cart.Remove(sid, view.Lines[0].ItemID); err != nil {
		t.Fatal(err)
	}
	view, _ = cart.View(sid)
	if len(view.Lines) != 1 {
		t.Fatalf("want 1 line after remove, got %d", len(view.Lines))
	}
	if err := cart.Clear(sid); err != nil {
		t.Fatal(err)
	}
	view, _ = cart.View(sid)
	if len(view.Lines) != 0 || view.Totals.Subtotal != 0 {
		t.Fatalf("cart should be empty after clear: %+v", view)
	}
}
