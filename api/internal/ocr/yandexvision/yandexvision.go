package yandexvision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"exam-bot/api/internal/util"
	"exam-bot/api/internal/yandexcloud"
)

const recognizeURL = "https://ocr.api.cloud.yandex.net/ocr/v1/recognizeText"

type tokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Client calls the Yandex Vision OCR recognizeText API with the page model
// and language auto-detection.
type Client struct {
	iamc     tokenSource
	folderID string
	url      string
	httpc    *http.Client
}

func New(iamc *yandexcloud.IAMClient, folderID string) *Client {
	return &Client{
		iamc:     iamc,
		folderID: folderID,
		url:      recognizeURL,
		httpc:    &http.Client{Timeout: 30 * time.Second},
	}
}

type request struct {
	Content       string   `json:"content"`
	MimeType      string   `json:"mimeType,omitempty"`      // "JPEG" | "PNG" | "PDF"
	LanguageCodes []string `json:"languageCodes,omitempty"` // ["*"] = auto
	Model         string   `json:"model,omitempty"`
}

type response struct {
	Result *struct {
		TextAnnotation *struct {
			FullText string `json:"fullText,omitempty"`
			Blocks   []struct {
				Lines []struct {
					Text string `json:"text,omitempty"`
				} `json:"lines,omitempty"`
			} `json:"blocks,omitempty"`
		} `json:"textAnnotation,omitempty"`
	} `json:"result,omitempty"`
}

func (c *Client) Recognize(ctx context.Context, image []byte) (string, error) {
	iamToken, err := c.iamc.Token(ctx)
	if err != nil {
		return "", err
	}

	mime := util.SniffMimeForOCR(image)
	if mime == "" {
		mime = "JPEG"
	}
	payload, _ := json.Marshal(request{
		Content:       base64.StdEncoding.EncodeToString(image),
		MimeType:      mime,
		LanguageCodes: []string{"*"},
		Model:         "page",
	})

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+iamToken)
	req.Header.Set("x-folder-id", c.folderID)
	req.Header.Set("x-data-logging-enabled", "true")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// single retry with a fresh IAM token
		c.iamc.Invalidate()
		if iamToken, err = c.iamc.Token(ctx); err != nil {
			return "", err
		}
		req.Header.Set("Authorization", "Bearer "+iamToken)
		req.Body = io.NopCloser(bytes.NewReader(payload))
		resp, err = c.httpc.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
	}
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vision %d: %s", resp.StatusCode, string(x))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Result == nil || out.Result.TextAnnotation == nil {
		return "", fmt.Errorf("vision: no text annotation")
	}
	ta := out.Result.TextAnnotation

	if t := strings.TrimSpace(ta.FullText); t != "" {
		return t, nil
	}
	// fallback: join block lines
	var lines []string
	for _, b := range ta.Blocks {
		for _, l := range b.Lines {
			if s := strings.TrimSpace(l.Text); s != "" {
				lines = append(lines, s)
			}
		}
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("vision: empty text")
	}
	return strings.Join(lines, "\n"), nil
}
