package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/distill"
)

// Run executes the subscription set command.
func (c *SubscriptionSetCmd) Run(deps *Dependencies) error {
	sub := &distill.Subscription{
		UserID: c.UserID,
		Plan:   c.Plan,
		Status: c.Status,
	}
	if c.Ends != "" {
		day, err := time.Parse(time.DateOnly, c.Ends)
		if err != nil {
			return fmt.Errorf("invalid --ends date %q, expected YYYY-MM-DD", c.Ends)
		}
		// The period covers the whole last day.
		sub.CurrentPeriodEnd = day.AddDate(0, 0, 1)
	}

	if err := deps.Subscriptions.UpsertSubscription(deps.Ctx, sub); err != nil {
		printError(deps.Stderr, err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "Subscription for %s: %s (%s)\n", sub.UserID, sub.Status, sub.Plan)
	return nil
}

// Run executes the subscription show command.
func (c *SubscriptionShowCmd) Run(deps *Dependencies) error {
	sub, err := deps.Subscriptions.FindSubscriptionByUserID(deps.Ctx, c.UserID)
	if distill.ErrorCode(err) == distill.ENOTFOUND {
		fmt.Fprintf(deps.Stdout, "No subscription for %s.\n", c.UserID)
		return nil
	} else if err != nil {
		printError(deps.Stderr, err)
		return err
	}

	active := "inactive"
	if sub.IsActive(deps.Now()) {
		active = "active"
	}
	ends := "never"
	if !sub.CurrentPeriodEnd.IsZero() {
		ends = sub.CurrentPeriodEnd.UTC().Format(time.RFC3339)
	}
	fmt.Fprintf(deps.Stdout, "user:    %s\nplan:    %s\nstatus:  %s (%s)\nexpires: %s\n",
		sub.UserID, sub.Plan, sub.Status, active, ends)
	return nil
}

// Run executes the quota show command.
func (c *QuotaShowCmd) Run(deps *Dependencies) error {
	period := distill.PeriodStart(deps.Now())
	q, err := deps.Quotas.FindQuota(deps.Ctx, c.UserID, distill.FeaturePremiumExtraction, period, deps.Config.PremiumLimit)
	if err != nil {
		printError(deps.Stderr, err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "%s: %d of %d premium extractions used, resets %s\n",
		c.UserID, q.Used, q.Limit, q.ResetsAt().Format(time.DateOnly))
	return nil
}
