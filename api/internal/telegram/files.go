package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fileAPI interface {
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
}

// BotFiles downloads photo bytes through the Bot API: resolve the file ID to
// a path, then GET it from the file endpoint.
type BotFiles struct {
	api     fileAPI
	token   string
	baseURL string
	httpc   *http.Client
}

func NewBotFiles(bot *tgbotapi.BotAPI) *BotFiles {
	return &BotFiles{
		api:     bot,
		token:   bot.Token,
		baseURL: "https://api.telegram.org",
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *BotFiles) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	file, err := f.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	url := fmt.Sprintf("%s/file/bot%s/%s", f.baseURL, f.token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
