// Package orders manages plan purchase orders. Orders are review records
// only; approving or cancelling one never moves a balance.
package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/megamart/ledger-service/internal/app/domain/order"
	"github.com/megamart/ledger-service/internal/app/storage"
	"github.com/megamart/ledger-service/pkg/logger"
)

// Service manages orders.
type Service struct {
	users   storage.UserStore
	store   storage.OrderStore
	catalog storage.CatalogStore
	log     *logger.Logger
}

// New constructs an orders service.
func New(users storage.UserStore, store storage.OrderStore, catalog storage.CatalogStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("orders")
	}
	return &Service{
		users:   users,
		store:   store,
		catalog: catalog,
		log:     log,
	}
}

// Place records a pending order for a plan. The order amount is the plan
// price at placement time; later plan edits do not change it.
func (s *Service) Place(ctx context.Context, userID, planID string) (order.Order, error) {
	userID = strings.TrimSpace(userID)
	planID = strings.TrimSpace(planID)
	if userID == "" {
		return order.Order{}, fmt.Errorf("userId is required")
	}
	if planID == "" {
		return order.Order{}, fmt.Errorf("planId is required")
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return order.Order{}, err
	}

	plans, err := s.catalog.ListPlans(ctx)
	if err != nil {
		return order.Order{}, err
	}
	amount := -1.0
	for _, p := range plans {
		if p.ID == planID {
			amount = p.Price
			break
		}
	}
	if amount < 0 {
		return order.Order{}, fmt.Errorf("plan %s: %w", planID, storage.ErrNotFound)
	}

	o, err := s.store.CreateOrder(ctx, order.Order{
		UserID: userID,
		PlanID: planID,
		Amount: amount,
		Status: order.StatusPending,
	})
	if err != nil {
		return order.Order{}, err
	}
	s.log.WithField("order_id", o.ID).
		WithField("user_id", userID).
		WithField("plan_id", planID).
		WithField("amount", amount).
		Info("order placed")
	return o, nil
}

// Review sets an order's status.
func (s *Service) Review(ctx context.Context, id string, status order.Status) (order.Order, error) {
	o, err := s.store.SetOrderStatus(ctx, id, status)
	if err != nil {
		return order.Order{}, err
	}
	s.log.WithField("order_id", id).
		WithField("status", string(status)).
		Info("order reviewed")
	return o, nil
}

// List returns every order.
func (s *Service) List(ctx context.Context) ([]order.Order, error) {
	return s.store.ListOrders(ctx)
}

// ListByUser returns one user's orders.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return s.store.ListOrdersByUser(ctx, userID)
}
