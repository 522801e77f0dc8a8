package services

import (
	"fmt"

	"linenloft/internal/domain"
	"linenloft/internal/repos"
)

// ErrProductGone marks a cart line whose product no longer resolves. The
// whole computation fails rather than silently dropping the line.
type ErrProductGone struct{ ProductID string }

func (e ErrProductGone) Error() string {
	return fmt.Sprintf("cart references unknown product %s", e.ProductID)
}

type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo

	FreeShipThreshold float64
	ShippingFee       float64
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo, freeThreshold, fee float64) *CartService {
	return &CartService{Carts: carts, Prods: prods, FreeShipThreshold: freeThreshold, ShippingFee: fee}
}

// CartLine is a cart item joined with the live product. Price is the
// product's current discounted price, not a snapshot.
type CartLine struct {
	ItemID  string
	Product domain.Product
	Qty     int
	Size    string
	Color   string
}

func (l CartLine) UnitPrice() float64 { return l.Product.DiscountedPrice }
func (l CartLine) LineTotal() float64 { return l.Product.DiscountedPrice * float64(l.Qty) }

type CartView struct {
	Lines  []CartLine
	Totals Totals
	Count  int // total units across lines
}

func (s *CartService) Add(sessionID, productID, size, color string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	if _, err := s.Prods.Get(productID); err != nil {
		return ErrProductGone{ProductID: productID}
	}
	return s.Carts.UpsertItem(cartID, productID, size, color, qty)
}

func (s *CartService) UpdateQty(sessionID, itemID string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	ok, err := s.Carts.SetQty(cartID, itemID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("cart item %s not found", itemID)
	}
	return nil
}

func (s *CartService) Remove(sessionID, itemID string) error {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	return s.Carts.Remove(cartID, itemID)
}

func (s *CartService) Clear(sessionID string) error {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	return s.Carts.Clear(cartID)
}

// View resolves every line against the current product record and prices
// the cart. Any unresolvable product fails the whole view.
func (s *CartService) View(sessionID string) (CartView, error) {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return CartView{}, err
	}
	items, err := s.Carts.Items(cartID)
	if err != nil {
		return CartView{}, err
	}

	view := CartView{Lines: make([]CartLine, 0, len(items))}
	subtotal := 0.0
	for _, it := range items {
		p, err := s.Prods.Get(it.ProductID)
		if err != nil {
			return CartView{}, ErrProductGone{ProductID: it.ProductID}
		}
		line := CartLine{ItemID: it.ID, Product: p, Qty: it.Qty, Size: it.Size, Color: it.Color}
		view.Lines = append(view.Lines, line)
		view.Count += it.Qty
		subtotal += line.LineTotal()
	}
	view.Totals = ComputeTotals(subtotal, s.FreeShipThreshold, s.ShippingFee)
	return view, nil
}
