// Package instructions loads the static prompt templates from Yandex Object
// Storage. Each template is fetched once at process start; a load failure is
// permanent for the process lifetime and callers degrade to a fixed reply.
package instructions

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const storageBase = "https://storage.yandexcloud.net"

type Provider struct {
	httpc  *http.Client
	base   string
	bucket string
}

func NewProvider(bucket string) *Provider {
	return &Provider{
		httpc:  &http.Client{Timeout: 10 * time.Second},
		base:   storageBase,
		bucket: bucket,
	}
}

// Load fetches one object by name. Transport errors and 5xx are retried
// briefly; a 404 or an empty body means the instruction is absent and is
// not retried.
func (p *Provider) Load(ctx context.Context, object string) (string, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)

	return backoff.RetryWithData(func() (string, error) {
		return p.fetch(ctx, object)
	}, policy)
}

func (p *Provider) fetch(ctx context.Context, object string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s", p.base, p.bucket, object)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", backoff.Permanent(err)
	}

	resp, err := p.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("storage %d: %s", resp.StatusCode, object)
	default:
		return "", backoff.Permanent(fmt.Errorf("storage %d: %s", resp.StatusCode, object))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", backoff.Permanent(fmt.Errorf("storage: %s is empty", object))
	}
	return text, nil
}
