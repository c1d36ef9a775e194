package service

import (
	"context"
	"fmt"

	"github.com/99minutos/order-management/internal/core/domain"
	"github.com/99minutos/order-management/internal/core/ports"
)

// StatsService aggregates user and order counts for admins.
type StatsService struct {
	users  ports.UserRepository
	orders ports.OrderRepository
}

func NewStatsService(users ports.UserRepository, orders ports.OrderRepository) *StatsService {
	return &StatsService{users: users, orders: orders}
}

func (s *StatsService) Stats(ctx context.Context, claims *domain.AuthClaims) (*ports.Stats, error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}

	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	active, err := s.users.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}

	orders, err := s.orders.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	byStatus := make(map[domain.OrderStatus]int64, len(domain.AllStatuses))
	for _, st := range domain.AllStatuses {
		n, err := s.orders.CountByStatus(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("count %s orders: %w", st, err)
		}
		byStatus[st] = n
	}

	return &ports.Stats{
		Users:  ports.UserStats{Total: total, Active: active, Inactive: total - active},
		Orders: ports.OrderStats{Total: orders, ByStatus: byStatus},
	}, nil
}
