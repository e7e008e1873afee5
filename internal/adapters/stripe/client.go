package stripe

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"stayfinder/internal/adapters/observability"
	"stayfinder/internal/domain"
)

// Client talks to the payment processor's REST API. One instance is
// constructed at startup and injected into the booking service; it is
// safe for concurrent use.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 25
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// APIError is a processor-reported failure (card declined, bad
// request, ...). The message is passed through to the caller.
type APIError struct {
	Status  int
	Type    string
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("payment processor error (%d)", e.Status)
}

var ErrBadClientSecret = errors.New("stripe: malformed client secret")

type intentPayload struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
}

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent opens an authorization hold for amount minor units and
// returns the intent with its client secret. Nothing is persisted on
// our side; an abandoned intent is harmless.
func (c *Client) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (domain.PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var out intentPayload
	if err := c.post(ctx, c.base+"/payment_intents", form, &out); err != nil {
		return domain.PaymentIntent{}, err
	}
	return intentFromPayload(out), nil
}

// ConfirmIntent confirms the intent identified by clientSecret. The
// processor may still require an out-of-band redirect; in that case
// the returned status reflects it and the caller decides what to do.
func (c *Client) ConfirmIntent(ctx context.Context, clientSecret, returnURL string) (domain.PaymentIntent, error) {
	id, err := intentIDFromSecret(clientSecret)
	if err != nil {
		return domain.PaymentIntent{}, err
	}

	form := url.Values{}
	form.Set("client_secret", clientSecret)
	if returnURL != "" {
		form.Set("return_url", returnURL)
	}

	var out intentPayload
	if err := c.post(ctx, fmt.Sprintf("%s/payment_intents/%s/confirm", c.base, id), form, &out); err != nil {
		return domain.PaymentIntent{}, err
	}
	return intentFromPayload(out), nil
}

// GetIntent fetches the current state of an intent by id.
func (c *Client) GetIntent(ctx context.Context, id string) (domain.PaymentIntent, error) {
	var out intentPayload
	if err := c.do(ctx, http.MethodGet, c.base+"/payment_intents/"+id, nil, &out); err != nil {
		return domain.PaymentIntent{}, err
	}
	return intentFromPayload(out), nil
}

func intentFromPayload(p intentPayload) domain.PaymentIntent {
	return domain.PaymentIntent{
		ID:           p.ID,
		ClientSecret: p.ClientSecret,
		Amount:       p.Amount,
		Status:       p.Status,
	}
}

// Client secrets look like "pi_123_secret_456"; the intent id is the
// part before "_secret_".
func intentIDFromSecret(secret string) (string, error) {
	i := strings.Index(secret, "_secret_")
	if i <= 0 {
		return "", ErrBadClientSecret
	}
	return secret[:i], nil
}

// ---- transport ----

func (c *Client) post(ctx context.Context, url string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, url, form, out)
}

// do performs a request with client-side rate limiting and retries on
// 429 and transient 5xx, honoring Retry-After when provided. 4xx
// responses are decoded into *APIError and never retried.
func (c *Client) do(ctx context.Context, method, url string, form url.Values, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	endpoint := endpointLabel(url)
	var lastErr error
	for i := 0; i < 4; i++ {
		// fresh request each attempt; form bodies are not reusable
		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.key)
		req.Header.Set("Accept", "application/json")
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("stripe", endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusInternalServerError ||
			resp.StatusCode == http.StatusBadGateway ||
			resp.StatusCode == http.StatusServiceUnavailable ||
			resp.StatusCode == http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			apiErr := decodeAPIError(resp)
			resp.Body.Close()
			if resp.StatusCode == http.StatusNotFound && apiErr.Message == "" {
				return domain.ErrNotFound
			}
			return apiErr
		}
	}

	return lastErr
}

func decodeAPIError(resp *http.Response) *APIError {
	e := &APIError{Status: resp.StatusCode}
	var env errorEnvelope
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if err := json.Unmarshal(b, &env); err == nil {
		e.Type = env.Error.Type
		e.Code = env.Error.Code
		e.Message = env.Error.Message
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(b))
	}
	return e
}

// endpointLabel keeps metric cardinality down: path only, ids collapsed.
func endpointLabel(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "unknown"
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if strings.HasPrefix(p, "pi_") {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with
// up to +50% crypto/rand jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
