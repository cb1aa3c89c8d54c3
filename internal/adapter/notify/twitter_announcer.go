package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/eshop/storefront/pkg/logx"
)

const (
	tweetEndpoint       = "https://api.twitter.com/2/tweets"
	mediaUploadEndpoint = "https://upload.twitter.com/1.1/media/upload.json"
)

// TwitterAnnouncer posts announcements to X. Text goes to the v2 tweets
// endpoint; media, when a path is given, is uploaded through the v1.1
// endpoint first. With incomplete credentials the announcer is disabled
// and Post is a silent no-op, matching the feature's optional nature.
type TwitterAnnouncer struct {
	httpClient *http.Client
	enabled    bool
}

func NewTwitterAnnouncer(apiKey, apiSecret, accessToken, accessSecret string) *TwitterAnnouncer {
	if apiKey == "" || apiSecret == "" || accessToken == "" || accessSecret == "" {
		return &TwitterAnnouncer{}
	}

	config := oauth1.NewConfig(apiKey, apiSecret)
	token := oauth1.NewToken(accessToken, accessSecret)

	client := config.Client(oauth1.NoContext, token)
	client.Timeout = 15 * time.Second

	return &TwitterAnnouncer{httpClient: client, enabled: true}
}

func (t *TwitterAnnouncer) Post(ctx context.Context, text, mediaPath string) error {
	if !t.enabled {
		return nil
	}

	var mediaID string
	if mediaPath != "" {
		id, err := t.uploadMedia(ctx, mediaPath)
		if err != nil {
			// A broken upload downgrades the post to text-only.
			logx.Warn().Err(err).Str("media", mediaPath).Msg("media upload failed")
		} else {
			mediaID = id
		}
	}

	payload := map[string]any{"text": text}
	if mediaID != "" {
		payload["media"] = map[string]any{"media_ids": []string{mediaID}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tweetEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post tweet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post tweet: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

func (t *TwitterAnnouncer) uploadMedia(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open media: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("read media: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mediaUploadEndpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload media: status %d: %s", resp.StatusCode, detail)
	}

	var result struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	return result.MediaIDString, nil
}
