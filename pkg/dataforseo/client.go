// Package dataforseo is a thin client for the DataForSEO keyword endpoints
// used by the pipeline. It validates the task envelope, classifies
// provider-reported throttling and per-keyword rejections, and isolates
// invalid keywords so one bad input never fails a whole batch.
package dataforseo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/EasonLyon/LT-Paid-Media-sub001/internal/resilience"
)

const (
	searchVolumePath    = "/v3/keywords_data/google_ads/search_volume/live"
	relatedPath         = "/v3/dataforseo_labs/google/related_keywords/live"
	keywordsForSitePath = "/v3/dataforseo_labs/google/keywords_for_site/live"
)

// Client is the upstream batch interface consumed by the pipeline stages.
type Client interface {
	// SearchVolume fetches metrics for a batch of keywords. Keywords the
	// provider permanently rejects are returned as skipped, not errors.
	SearchVolume(ctx context.Context, keywords []string, params TaskParams) (results []KeywordResult, skipped []string, err error)

	// RelatedKeywords expands one seed keyword into related keyword rows.
	RelatedKeywords(ctx context.Context, seed string, params TaskParams) ([]KeywordResult, error)

	// KeywordsForSite returns the keywords a domain ranks for.
	KeywordsForSite(ctx context.Context, domain string, params TaskParams) ([]KeywordResult, error)
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithRateLimit caps outgoing requests per second. This is coarse per-host
// protection; the pipeline's sliding-window limiter enforces the account
// quota on top of it.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetryPolicy overrides the retry policy for throttled calls.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *client) {
		c.policy = p
	}
}

// WithNormalizer sets the keyword normalizer used to match rejected
// keywords against the batch.
func WithNormalizer(norm func(string) string) Option {
	return func(c *client) {
		c.norm = norm
	}
}

type client struct {
	httpClient *http.Client
	baseURL    string
	login      string
	password   string
	limiter    *rate.Limiter
	policy     resilience.Policy
	norm       func(string) string
}

// NewClient creates a DataForSEO client with basic-auth credentials.
func NewClient(baseURL, login, password string, opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		login:      login,
		password:   password,
		limiter:    rate.NewLimiter(5, 1),
		policy:     resilience.DefaultPolicy(),
		norm:       strings.ToLower,
	}
	c.policy.OnRetry = resilience.RetryLogger("dataforseo", "live")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchVolumeTask struct {
	Keywords     []string `json:"keywords"`
	LocationCode int      `json:"location_code,omitempty"`
	LanguageCode string   `json:"language_code,omitempty"`
}

func (c *client) SearchVolume(ctx context.Context, keywords []string, params TaskParams) ([]KeywordResult, []string, error) {
	batch := append([]string(nil), keywords...)
	var skipped []string

	// The provider rejects a whole task when one keyword contains invalid
	// characters. Shrink and retry until the task goes through; the batch
	// strictly shrinks so this terminates.
	for len(batch) > 0 {
		payload := []searchVolumeTask{{
			Keywords:     batch,
			LocationCode: params.LocationCode,
			LanguageCode: params.LanguageCode,
		}}

		env, err := resilience.DoVal(ctx, c.policy, "dataforseo: search volume", func(ctx context.Context) (*envelope, error) {
			return c.post(ctx, searchVolumePath, payload)
		})
		if err != nil {
			if ie, ok := resilience.AsInvalidItem(err); ok {
				var removed []string
				batch, removed = resilience.ShrinkBatch(batch, ie.Item, c.norm)
				skipped = append(skipped, removed...)
				zap.L().Warn("dataforseo: skipping rejected keywords",
					zap.Strings("keywords", removed),
					zap.String("provider_message", ie.Err.Error()),
				)
				continue
			}
			return nil, skipped, err
		}

		results := flatten(env)
		return results, skipped, nil
	}

	return nil, skipped, nil
}

type labsTask struct {
	Keyword      string `json:"keyword,omitempty"`
	Target       string `json:"target,omitempty"`
	LocationCode int    `json:"location_code,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

func (c *client) RelatedKeywords(ctx context.Context, seed string, params TaskParams) ([]KeywordResult, error) {
	payload := []labsTask{{
		Keyword:      seed,
		LocationCode: params.LocationCode,
		LanguageCode: params.LanguageCode,
		Limit:        params.Limit,
	}}

	env, err := resilience.DoVal(ctx, c.policy, "dataforseo: related keywords", func(ctx context.Context) (*envelope, error) {
		return c.post(ctx, relatedPath, payload)
	})
	if err != nil {
		return nil, err
	}
	return flatten(env), nil
}

func (c *client) KeywordsForSite(ctx context.Context, domain string, params TaskParams) ([]KeywordResult, error) {
	payload := []labsTask{{
		Target:       domain,
		LocationCode: params.LocationCode,
		LanguageCode: params.LanguageCode,
		Limit:        params.Limit,
	}}

	env, err := resilience.DoVal(ctx, c.policy, "dataforseo: keywords for site", func(ctx context.Context) (*envelope, error) {
		return c.post(ctx, keywordsForSitePath, payload)
	})
	if err != nil {
		return nil, err
	}
	return flatten(env), nil
}

// post issues one API call and validates the envelope and every task.
func (c *client) post(ctx context.Context, path string, payload any) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "dataforseo: rate limiter wait")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "dataforseo: marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "dataforseo: create request")
	}
	req.SetBasicAuth(c.login, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "dataforseo: http post")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "dataforseo: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("dataforseo: http %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, eris.Wrap(err, "dataforseo: decode envelope")
	}

	if err := validate(&env, path); err != nil {
		return nil, err
	}
	return &env, nil
}

// validate inspects tasks_error and per-task status codes before the
// response is treated as success.
func validate(env *envelope, path string) error {
	if err := classifyStatus(env.StatusCode, env.StatusMessage, path); err != nil {
		return err
	}

	if len(env.Tasks) == 0 {
		return eris.Errorf("dataforseo: %s: response has no tasks", path)
	}

	// Every task's status is checked even when tasks_error claims none
	// failed; the two have been seen to disagree.
	for _, t := range env.Tasks {
		if t.StatusCode != StatusOK {
			return classifyStatus(t.StatusCode, t.StatusMessage, path)
		}
	}
	if env.TasksError > 0 {
		return eris.Errorf("dataforseo: %s: tasks_error=%d with no failed task", path, env.TasksError)
	}

	return nil
}

func classifyStatus(code int, message, path string) error {
	switch {
	case code == StatusOK:
		return nil
	case code == StatusRateLimited:
		return resilience.NewThrottledError(
			fmt.Errorf("dataforseo: %s: status %d: %s", path, code, message), code)
	case code == StatusInvalidKeys:
		return resilience.NewInvalidItemError(
			fmt.Errorf("dataforseo: %s: status %d: %s", path, code, message),
			quotedFragment(message))
	default:
		return eris.Errorf("dataforseo: %s: task failed with status %d: %s", path, code, message)
	}
}

// quotedFragment pulls the offending keyword out of messages like
// `Invalid Field: 'keywords'. Unsupported characters in keyword: "ab~cd".`
func quotedFragment(message string) string {
	if i := strings.Index(message, `"`); i >= 0 {
		if j := strings.Index(message[i+1:], `"`); j >= 0 {
			return message[i+1 : i+1+j]
		}
	}
	return ""
}

// flatten collects keyword rows across all tasks, covering both the flat
// and the items-nested result shapes.
func flatten(env *envelope) []KeywordResult {
	var out []KeywordResult
	for _, t := range env.Tasks {
		for _, r := range t.Result {
			if len(r.Items) > 0 {
				for _, item := range r.Items {
					row := KeywordResult{Keyword: item.KeywordData.Keyword}
					if info := item.KeywordData.KeywordInfo; info != nil {
						row.SearchVolume = info.SearchVolume
						row.CPC = info.CPC
						row.Competition = info.Competition
						row.MonthlySearches = info.MonthlySearches
					}
					out = append(out, row)
				}
				continue
			}
			if r.Keyword == "" {
				continue
			}
			out = append(out, KeywordResult{
				Keyword:         r.Keyword,
				SearchVolume:    r.SearchVolume,
				CPC:             r.CPC,
				Competition:     r.Competition,
				MonthlySearches: r.MonthlySearches,
			})
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
