package services

import (
	"linenloft/internal/domain"
	"linenloft/internal/repos"
)

type WishlistService struct {
	Wish *repos.WishlistRepo
}

func NewWishlistService(wish *repos.WishlistRepo) *WishlistService {
	return &WishlistService{Wish: wish}
}

func (s *WishlistService) Save(sessionID, productID string) error {
	return s.Wish.Save(sessionID, productID)
}

func (s *WishlistService) Remove(sessionID, productID string) error {
	return s.Wish.Remove(sessionID, productID)
}

func (s *WishlistService) List(sessionID string) ([]domain.Product, error) {
	return s.Wish.List(sessionID)
}
