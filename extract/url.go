package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/distill"
)

// Outcome classifies a single stage attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeWeak    Outcome = "weak"
	OutcomeEmpty   Outcome = "empty"
	OutcomeFailure Outcome = "failure"
	OutcomeTimeout Outcome = "timeout"
)

// Attempt records how one stage went. Attempts only drive sequencing, logs
// and error details; they never reach the client as such.
type Attempt struct {
	Stage     string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   Outcome
	Chars     int
	Err       error
}

var _ distill.URLExtractor = (*URLExtractor)(nil)

// URLExtractor runs Stages in order until one passes its quality gate.
type URLExtractor struct {
	Stages       []Stage
	TokenCounter distill.TokenCounter
	Logger       *slog.Logger
}

// Extract returns the main text of the page at rawURL.
//
// A stage that fails, times out or yields weak text only causes escalation.
// When no stage passes, the longest weak candidate is returned with
// meta.quality set to "weak". ENOCONTENT is returned when every stage
// succeeded but produced blank text, EEXTRACT otherwise.
func (e *URLExtractor) Extract(ctx context.Context, rawURL string) (*distill.Result, error) {
	pageURL, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}
	logger := loggerOrDiscard(e.Logger).With("url", pageURL)

	if len(e.Stages) == 0 {
		return nil, distill.Errorf(distill.ENOTCONFIGURED, "no extraction stages configured")
	}

	var (
		attempts  []Attempt
		weak      *Candidate
		weakStage string
		siteName  string
	)
	for _, stage := range e.Stages {
		a, c := runStage(ctx, stage, pageURL)
		attempts = append(attempts, a)
		logger.Info("extract stage",
			"stage", a.Stage,
			"outcome", a.Outcome,
			"chars", a.Chars,
			"duration", a.Duration,
			"err", a.Err,
		)

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		if siteName == "" {
			siteName = strings.TrimSpace(c.SiteName)
		}

		switch a.Outcome {
		case OutcomeSuccess:
			return e.result(ctx, pageURL, stage.Name(), c, siteName, attempts, false), nil
		case OutcomeWeak:
			if weak == nil || a.Chars > utf8.RuneCountInString(weak.Text) {
				weak, weakStage = c, stage.Name()
			}
		}
	}

	if weak != nil {
		logger.Warn("returning weak result", "stage", weakStage)
		return e.result(ctx, pageURL, weakStage, weak, siteName, attempts, true), nil
	}

	if allEmpty(attempts) {
		return nil, &distill.Error{
			Code:    distill.ENOCONTENT,
			Message: "no readable content found at URL",
			Details: describe(attempts),
		}
	}
	return nil, &distill.Error{
		Code:    distill.EEXTRACT,
		Message: "could not extract content from URL",
		Details: describe(attempts),
	}
}

func (e *URLExtractor) result(ctx context.Context, pageURL, stage string, c *Candidate, siteName string, attempts []Attempt, weak bool) *distill.Result {
	r := distill.NewResult(c.Text)
	r.Title = strings.TrimSpace(c.Title)
	r.Byline = strings.TrimSpace(c.Byline)
	r.Excerpt = strings.TrimSpace(c.Excerpt)
	r.SiteName = c.SiteName
	if r.SiteName == "" {
		r.SiteName = siteName
	}

	stages := make([]string, len(attempts))
	for i, a := range attempts {
		stages[i] = a.Stage
	}
	r.Meta[distill.MetaProvider] = stage
	r.Meta[distill.MetaStages] = stages
	r.Meta[distill.MetaSourceURL] = pageURL
	if weak {
		r.Meta[distill.MetaQuality] = "weak"
	}
	annotate(ctx, r, e.TokenCounter)
	return r
}

// runStage executes one stage and classifies its outcome. The returned
// candidate may carry only page metadata; its text counts only on success
// or weak outcomes.
func runStage(ctx context.Context, stage Stage, pageURL string) (Attempt, *Candidate) {
	a := Attempt{Stage: stage.Name(), StartedAt: time.Now()}
	c, err := stage.Run(ctx, pageURL)
	a.Duration = time.Since(a.StartedAt)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		a.Outcome, a.Err = OutcomeTimeout, err
		return a, c
	case err != nil:
		a.Outcome, a.Err = OutcomeFailure, err
		return a, c
	case c == nil:
		a.Outcome = OutcomeEmpty
		return a, nil
	}

	c.Text = distill.NormalizeText(c.Text)
	a.Chars = utf8.RuneCountInString(c.Text)
	switch {
	case a.Chars == 0:
		a.Outcome = OutcomeEmpty
		return a, c
	case stage.Gate().IsAcceptable(c.Text):
		a.Outcome = OutcomeSuccess
	default:
		a.Outcome = OutcomeWeak
	}
	return a, c
}

func allEmpty(attempts []Attempt) bool {
	for _, a := range attempts {
		if a.Outcome != OutcomeEmpty {
			return false
		}
	}
	return len(attempts) > 0
}

// describe lists each attempted stage with its outcome, e.g.
// "static=failure, rendered=timeout, reader=empty".
func describe(attempts []Attempt) string {
	parts := make([]string, len(attempts))
	for i, a := range attempts {
		parts[i] = fmt.Sprintf("%s=%s", a.Stage, a.Outcome)
	}
	return strings.Join(parts, ", ")
}

// ValidateURL trims raw and checks that it is an absolute http(s) URL.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", distill.Errorf(distill.EINVALID, "url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", distill.Errorf(distill.EINVALID, "url must be an absolute http or https URL")
	}
	return u.String(), nil
}
