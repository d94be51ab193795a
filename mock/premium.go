package mock

import (
	"context"
	"time"

	"github.com/fwojciec/distill"
)

var _ distill.AuthService = (*AuthService)(nil)

// AuthService is a mock implementation of distill.AuthService.
type AuthService struct {
	AuthenticateFn func(ctx context.Context, token string) (*distill.User, error)
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*distill.User, error) {
	return s.AuthenticateFn(ctx, token)
}

var _ distill.SubscriptionService = (*SubscriptionService)(nil)

// SubscriptionService is a mock implementation of distill.SubscriptionService.
type SubscriptionService struct {
	FindSubscriptionByUserIDFn func(ctx context.Context, userID string) (*distill.Subscription, error)
	UpsertSubscriptionFn       func(ctx context.Context, sub *distill.Subscription) error
}

func (s *SubscriptionService) FindSubscriptionByUserID(ctx context.Context, userID string) (*distill.Subscription, error) {
	return s.FindSubscriptionByUserIDFn(ctx, userID)
}

func (s *SubscriptionService) UpsertSubscription(ctx context.Context, sub *distill.Subscription) error {
	return s.UpsertSubscriptionFn(ctx, sub)
}

var _ distill.QuotaService = (*QuotaService)(nil)

// QuotaService is a mock implementation of distill.QuotaService.
type QuotaService struct {
	FindQuotaFn   func(ctx context.Context, userID, feature string, periodStart time.Time, limit int) (*distill.Quota, error)
	ReserveFn     func(ctx context.Context, userID, feature string, periodStart time.Time, limit int) (*distill.Quota, error)
	ReleaseFn     func(ctx context.Context, userID, feature string, periodStart time.Time) error
	PruneQuotasFn func(ctx context.Context, cutoff time.Time) (int, error)
}

func (s *QuotaService) FindQuota(ctx context.Context, userID, feature string, periodStart time.Time, limit int) (*distill.Quota, error) {
	return s.FindQuotaFn(ctx, userID, feature, periodStart, limit)
}

func (s *QuotaService) Reserve(ctx context.Context, userID, feature string, periodStart time.Time, limit int) (*distill.Quota, error) {
	return s.ReserveFn(ctx, userID, feature, periodStart, limit)
}

func (s *QuotaService) Release(ctx context.Context, userID, feature string, periodStart time.Time) error {
	return s.ReleaseFn(ctx, userID, feature, periodStart)
}

func (s *QuotaService) PruneQuotas(ctx context.Context, cutoff time.Time) (int, error) {
	return s.PruneQuotasFn(ctx, cutoff)
}

var _ distill.Scraper = (*Scraper)(nil)

// Scraper is a mock implementation of distill.Scraper.
type Scraper struct {
	ScrapeFn func(ctx context.Context, url string) (*distill.Scrape, error)
}

func (s *Scraper) Scrape(ctx context.Context, url string) (*distill.Scrape, error) {
	return s.ScrapeFn(ctx, url)
}
