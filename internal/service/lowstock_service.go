package service

import (
	"context"
	"fmt"
	"time"

	"shopfront/internal/config"
	"shopfront/internal/mail"
	"shopfront/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// lowStockFlagKey is the rate-limit flag: while it exists, no further
// low-stock notifications go out
const lowStockFlagKey = "low_stock_notification_sent"

// lowStockFlagTTL bounds notifications to one per hour
const lowStockFlagTTL = time.Hour

// LowStockService scans inventory for products at or below the warning
// threshold and notifies administrators, at most once per hour
type LowStockService interface {
	Run(ctx context.Context) error
}

type lowStockService struct {
	products repository.ProductRepository
	users    repository.UserRepository
	redis    *redis.Client
	mailer   mail.Mailer
	shop     config.ShopConfig
	logger   *zap.Logger
}

// NewLowStockService creates a new instance of LowStockService
func NewLowStockService(
	products repository.ProductRepository,
	users repository.UserRepository,
	redisClient *redis.Client,
	mailer mail.Mailer,
	shop config.ShopConfig,
	logger *zap.Logger,
) LowStockService {
	return &lowStockService{
		products: products,
		users:    users,
		redis:    redisClient,
		mailer:   mailer,
		shop:     shop,
		logger:   logger,
	}
}

// Run performs one scan. No low-stock products, or a still-live rate-limit
// flag, or no admins: all no-ops. Otherwise one notification goes to every
// admin; per-recipient delivery failures are logged and swallowed, and the
// flag is set afterwards with a one-hour expiry.
func (s *lowStockService) Run(ctx context.Context) error {
	products, err := s.products.FindLowStock(ctx, s.shop.LowStockThreshold)
	if err != nil {
		return fmt.Errorf("failed to scan for low stock: %w", err)
	}

	if len(products) == 0 {
		return nil
	}

	exists, err := s.redis.Exists(ctx, lowStockFlagKey).Result()
	if err != nil {
		return fmt.Errorf("failed to check notification flag: %w", err)
	}
	if exists > 0 {
		return nil
	}

	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to list admins: %w", err)
	}
	if len(admins) == 0 {
		return nil
	}

	criticalCount := 0
	for _, p := range products {
		if p.StockQuantity <= s.shop.CriticalStockThreshold {
			criticalCount++
		}
	}

	report := mail.LowStockReport{
		Products:      products,
		CriticalCount: criticalCount,
		Threshold:     s.shop.LowStockThreshold,
	}

	for _, admin := range admins {
		if err := s.mailer.SendLowStockAlert(admin.Email, report); err != nil {
			// Best-effort delivery: one failed recipient must not block the rest
			s.logger.Warn("Failed to deliver low stock alert",
				zap.String("recipient", admin.Email),
				zap.Error(err),
			)
		}
	}

	if err := s.redis.Set(ctx, lowStockFlagKey, 1, lowStockFlagTTL).Err(); err != nil {
		return fmt.Errorf("failed to set notification flag: %w", err)
	}

	s.logger.Info("Low stock alerts sent",
		zap.Int("products", len(products)),
		zap.Int("critical", criticalCount),
		zap.Int("admins", len(admins)),
	)

	return nil
}
