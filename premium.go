package distill

import (
	"context"
	"errors"
	"time"
)

// FeaturePremiumExtraction is the quota feature key for premium extractions.
const FeaturePremiumExtraction = "premium_extraction"

// DefaultPremiumLimit is the monthly number of premium extractions per user.
const DefaultPremiumLimit = 50

// User is an authenticated caller.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// AuthService resolves bearer credentials to users.
type AuthService interface {
	// Authenticate returns the user owning token.
	// Returns EUNAUTHORIZED if the token is missing, expired or unknown.
	Authenticate(ctx context.Context, token string) (*User, error)
}

// Subscription statuses.
const (
	SubscriptionActive   = "active"
	SubscriptionTrialing = "trialing"
	SubscriptionCanceled = "canceled"
	SubscriptionPastDue  = "past_due"
)

// Subscription is a user's billing entitlement.
type Subscription struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	Plan             string    `json:"plan"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"currentPeriodEnd"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Validate returns an error if the subscription contains invalid fields.
func (s *Subscription) Validate() error {
	if s.UserID == "" {
		return Errorf(EINVALID, "subscription user ID required")
	}
	switch s.Status {
	case SubscriptionActive, SubscriptionTrialing, SubscriptionCanceled, SubscriptionPastDue:
	default:
		return Errorf(EINVALID, "invalid subscription status %q", s.Status)
	}
	return nil
}

// IsActive reports whether the subscription entitles premium features at now.
// A zero CurrentPeriodEnd means the subscription does not expire.
func (s *Subscription) IsActive(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.Status != SubscriptionActive && s.Status != SubscriptionTrialing {
		return false
	}
	return s.CurrentPeriodEnd.IsZero() || now.Before(s.CurrentPeriodEnd)
}

// SubscriptionService represents a service for managing subscriptions.
type SubscriptionService interface {
	// FindSubscriptionByUserID retrieves the user's subscription.
	// Returns ENOTFOUND if the user has none.
	FindSubscriptionByUserID(ctx context.Context, userID string) (*Subscription, error)

	// UpsertSubscription creates or replaces the user's subscription.
	UpsertSubscription(ctx context.Context, sub *Subscription) error
}

// Quota is a user's usage of a metered feature within one period.
type Quota struct {
	UserID      string    `json:"userId"`
	Feature     string    `json:"feature"`
	PeriodStart time.Time `json:"periodStart"`
	Used        int       `json:"used"`
	Limit       int       `json:"limit"`
}

// ResetsAt returns the start of the next period.
func (q *Quota) ResetsAt() time.Time {
	return NextPeriodStart(q.PeriodStart)
}

// Usage is the client-facing view of a Quota.
type Usage struct {
	Used     int       `json:"used"`
	Limit    int       `json:"limit"`
	ResetsAt time.Time `json:"resetsAt"`
}

// Usage returns the client-facing view of q.
func (q *Quota) Usage() *Usage {
	return &Usage{Used: q.Used, Limit: q.Limit, ResetsAt: q.ResetsAt()}
}

// PeriodStart returns the start of the quota period containing t: the first
// instant of its calendar month in UTC.
func PeriodStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NextPeriodStart returns the start of the period after the one containing t.
func NextPeriodStart(t time.Time) time.Time {
	return PeriodStart(t).AddDate(0, 1, 0)
}

// QuotaService tracks metered usage. Resets are derived from period
// boundaries; no record is ever reset in place.
type QuotaService interface {
	// FindQuota returns usage for the period starting at periodStart.
	// A period without usage is reported with Used == 0.
	FindQuota(ctx context.Context, userID, feature string, periodStart time.Time, limit int) (*Quota, error)

	// Reserve atomically increments usage if it is below limit and returns
	// the updated quota. Returns EQUOTA, together with the current quota, if
	// the limit has been reached.
	Reserve(ctx context.Context, userID, feature string, periodStart time.Time, limit int) (*Quota, error)

	// Release undoes a reservation after a failed call.
	Release(ctx context.Context, userID, feature string, periodStart time.Time) error

	// PruneQuotas deletes records of periods that started before cutoff.
	PruneQuotas(ctx context.Context, cutoff time.Time) (int, error)
}

// Scrape is the payload of a premium fetch-and-render call.
type Scrape struct {
	Title    string
	Markdown string
	HTML     string
	URL      string
}

// Scraper is a premium fetch-and-render provider with main-content isolation.
type Scraper interface {
	// Scrape renders url and returns its main content.
	// Returns EPROVIDER on upstream failure.
	Scrape(ctx context.Context, url string) (*Scrape, error)
}

// PremiumMetadata describes where and when premium content was extracted.
type PremiumMetadata struct {
	SourceURL      string    `json:"sourceUrl"`
	ExtractedAt    time.Time `json:"extractedAt"`
	ExtractionType string    `json:"extractionType"`
}

// PremiumResult is the payload of a successful premium extraction.
type PremiumResult struct {
	Title    string          `json:"title,omitempty"`
	Content  string          `json:"content"`
	Markdown string          `json:"markdown,omitempty"`
	Metadata PremiumMetadata `json:"metadata"`
	Usage    *Usage          `json:"usage"`
}

// PremiumExtractor runs premium extraction for the owner of a bearer token.
type PremiumExtractor interface {
	// Extract returns EUNAUTHORIZED, EFORBIDDEN or a *QuotaError when the
	// caller is not entitled, and EPROVIDER if the provider fails.
	Extract(ctx context.Context, token, url string) (*PremiumResult, error)
}

// QuotaError is an EQUOTA error carrying the caller's current usage.
type QuotaError struct {
	Err   *Error
	Usage *Usage
}

func (e *QuotaError) Error() string { return e.Err.Error() }

func (e *QuotaError) Unwrap() error { return e.Err }

// ErrorUsage returns the usage attached to a quota error, if any.
func ErrorUsage(err error) *Usage {
	var e *QuotaError
	if errors.As(err, &e) {
		return e.Usage
	}
	return nil
}
