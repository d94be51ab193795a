// Package premium guards the paid extraction provider behind identity,
// subscription and monthly quota checks.
package premium

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/distill"
	"github.com/fwojciec/distill/extract"
)

// ExtractionType tags premium results in their metadata.
const ExtractionType = "firecrawl"

// State is how far a request progressed through the gate.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateEntitled
	StateQuotaOK
	StateAllowed
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateEntitled:
		return "entitled"
	case StateQuotaOK:
		return "quota_ok"
	case StateAllowed:
		return "allowed"
	case StateDenied:
		return "denied"
	}
	return "unknown"
}

var _ distill.PremiumExtractor = (*Gate)(nil)

// Gate runs the premium scraper for entitled callers.
//
// Quota is reserved before the scraper runs and released if it fails, so
// concurrent requests cannot overshoot the limit and failed calls cost
// nothing.
type Gate struct {
	Auth          distill.AuthService
	Subscriptions distill.SubscriptionService
	Quotas        distill.QuotaService
	Scraper       distill.Scraper
	Converter     distill.Converter
	Texter        distill.Texter

	// Limit is the monthly allowance. Zero means DefaultPremiumLimit.
	Limit int

	Now    func() time.Time
	Logger *slog.Logger
}

// Extract authenticates token and, if the caller is entitled and within
// quota, scrapes rawURL.
func (g *Gate) Extract(ctx context.Context, token, rawURL string) (_ *distill.PremiumResult, err error) {
	state := StateUnauthenticated
	var userID string
	defer func(begin time.Time) {
		if err != nil {
			state = StateDenied
		}
		g.logger().Info("premium extract",
			"user", userID,
			"url", rawURL,
			"state", state,
			"code", distill.ErrorCode(err),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())

	if g.Scraper == nil {
		return nil, distill.Errorf(distill.ENOTCONFIGURED, "premium scraper is not configured")
	}

	user, err := g.Auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	userID = user.ID
	state = StateAuthenticated

	now := g.now()
	sub, err := g.Subscriptions.FindSubscriptionByUserID(ctx, user.ID)
	if distill.ErrorCode(err) == distill.ENOTFOUND {
		return nil, distill.Errorf(distill.EFORBIDDEN, "an active subscription is required")
	} else if err != nil {
		return nil, err
	}
	if !sub.IsActive(now) {
		return nil, distill.Errorf(distill.EFORBIDDEN, "an active subscription is required")
	}
	state = StateEntitled

	pageURL, err := extract.ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	period := distill.PeriodStart(now)
	quota, err := g.Quotas.Reserve(ctx, user.ID, distill.FeaturePremiumExtraction, period, g.limit())
	if err != nil {
		var e *distill.Error
		if errors.As(err, &e) && e.Code == distill.EQUOTA && quota != nil {
			return nil, &distill.QuotaError{Err: e, Usage: quota.Usage()}
		}
		return nil, err
	}
	state = StateQuotaOK

	resp, err := g.scrape(ctx, pageURL, now)
	if err != nil {
		// Release even if the client went away; the reservation must not leak.
		if rerr := g.Quotas.Release(context.WithoutCancel(ctx), user.ID, distill.FeaturePremiumExtraction, period); rerr != nil {
			g.logger().Error("release premium quota", "user", user.ID, "err", rerr)
		}
		return nil, err
	}
	state = StateAllowed

	resp.Usage = quota.Usage()
	return resp, nil
}

func (g *Gate) scrape(ctx context.Context, pageURL string, now time.Time) (*distill.PremiumResult, error) {
	s, err := g.Scraper.Scrape(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if distill.ErrorCode(err) == distill.ENOTCONFIGURED {
			return nil, err
		}
		return nil, &distill.Error{
			Code:    distill.EPROVIDER,
			Message: "premium extraction failed, please try again later",
			Details: err.Error(),
			Status:  distill.ErrorStatus(err),
		}
	}

	markdown := s.Markdown
	if strings.TrimSpace(markdown) == "" && s.HTML != "" && g.Converter != nil {
		if md, err := g.Converter.Convert(s.HTML, pageURL); err == nil {
			markdown = md
		}
	}

	content := markdown
	if s.HTML != "" && g.Texter != nil {
		if text, err := g.Texter.Text(s.HTML); err == nil && text != "" {
			content = text
		}
	}
	content = distill.NormalizeText(content)
	if content == "" {
		return nil, distill.Errorf(distill.ENOCONTENT, "no readable content found at URL")
	}

	source := s.URL
	if source == "" {
		source = pageURL
	}
	return &distill.PremiumResult{
		Title:    s.Title,
		Content:  content,
		Markdown: markdown,
		Metadata: distill.PremiumMetadata{
			SourceURL:      source,
			ExtractedAt:    now.UTC(),
			ExtractionType: ExtractionType,
		},
	}, nil
}

func (g *Gate) limit() int {
	if g.Limit > 0 {
		return g.Limit
	}
	return distill.DefaultPremiumLimit
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *Gate) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}
