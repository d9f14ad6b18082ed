package yandexcloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const tokensURL = "https://iam.api.cloud.yandex.net/iam/v1/tokens"

// IAMClient exchanges a Yandex Passport OAuth token for an IAM token and
// caches it. IAM tokens live 12h; we keep them for 11h with a minute of slack.
type IAMClient struct {
	httpc *http.Client
	oauth string
	url   string

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewIAMClient(oauth string) *IAMClient {
	return &IAMClient{
		httpc: &http.Client{Timeout: 20 * time.Second},
		oauth: oauth,
		url:   tokensURL,
	}
}

func (c *IAMClient) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiry.Add(-time.Minute)) {
		return c.token, nil
	}

	body, _ := json.Marshal(map[string]string{"yandexPassportOauthToken": c.oauth})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("iam %d", resp.StatusCode)
	}

	var out struct {
		IamToken string `json:"iamToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	c.token = out.IamToken
	c.expiry = time.Now().Add(11 * time.Hour)
	return c.token, nil
}

// Invalidate drops the cached token so the next Token call re-exchanges.
// Callers use it for a single refresh retry after a 401.
func (c *IAMClient) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}
