package startgg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dghubble/sling"
	"github.com/meleemajors/meleemajors/internal/logger"
)

const (
	DefaultEndpoint       = "https://api.start.gg/gql/alpha"
	DefaultTimeout        = 60 * time.Second
	DefaultMaxAttempts    = 5
	DefaultInitialBackoff = 2 * time.Second
	DefaultMaxBackoff     = 30 * time.Second
)

// Config controls the client transport and retry policy.
type Config struct {
	Endpoint       string
	Token          string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client queries the start.gg GraphQL API.
type Client struct {
	cfg  Config
	base *sling.Sling
	log  *logger.Logger
}

// NewClient creates a client. Zero config values fall back to defaults.
func NewClient(cfg Config, httpClient *http.Client, log *logger.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("start.gg API token is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = logger.Default()
	}

	return &Client{
		cfg: cfg,
		base: sling.New().
			Client(httpClient).
			Set("Authorization", "Bearer "+cfg.Token).
			Set("Accept", "application/json"),
		log: log,
	}, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type graphqlError struct {
	Message string `json:"message"`
}

// query runs a GraphQL operation with retries and decodes data into out.
func (c *Client) query(ctx context.Context, operation, query string, vars map[string]any, out any) error {
	started := time.Now()
	defer func() { logger.RecordTiming("startgg."+operation, time.Since(started)) }()

	attempts := 0
	permanent := false
	run := func() error {
		attempts++
		err := c.post(ctx, query, vars, out)
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			permanent = true
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialBackoff
	policy.MaxInterval = c.cfg.MaxBackoff
	policy.RandomizationFactor = 0.5
	policy.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		c.log.Warning("start.gg", "query failed, retrying", logger.Fields{
			"operation":    operation,
			"attempt":      attempts,
			"max_attempts": c.cfg.MaxAttempts,
			"retry_in":     wait.Round(time.Millisecond).String(),
			"error":        err.Error(),
		})
	}

	err := backoff.RetryNotify(run,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.cfg.MaxAttempts-1)), ctx),
		notify)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if permanent {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return &TransientError{Operation: operation, Attempts: attempts, Err: err}
}

// post performs one HTTP round trip. Errors that retrying cannot fix are
// wrapped with backoff.Permanent.
func (c *Client) post(ctx context.Context, query string, vars map[string]any, out any) error {
	req, err := c.base.New().
		Post(c.cfg.Endpoint).
		BodyJSON(graphqlRequest{Query: query, Variables: vars}).
		Request()
	if err != nil {
		return backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req = req.WithContext(ctx)

	var body graphqlResponse
	resp, err := c.base.Do(req, &body, &body)
	if resp == nil {
		return fmt.Errorf("sending request: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("start.gg API returned status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return backoff.Permanent(fmt.Errorf("start.gg API returned status %d%s", resp.StatusCode, errorSuffix(body.Errors)))
	case err != nil:
		return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
	}

	if len(body.Errors) > 0 {
		return fmt.Errorf("graphql errors:%s", errorSuffix(body.Errors))
	}
	if len(body.Data) == 0 || string(body.Data) == "null" {
		return backoff.Permanent(errors.New("graphql response has no data"))
	}
	if err := json.Unmarshal(body.Data, out); err != nil {
		return backoff.Permanent(fmt.Errorf("decoding data: %w", err))
	}
	return nil
}

func errorSuffix(errs []graphqlError) string {
	if len(errs) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return " " + strings.Join(msgs, "; ")
}
