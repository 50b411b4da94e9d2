package telegram

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxPhotoBytes caps what gets base64-encoded into a vision request.
// Telegram compresses photos well below this; the cap guards against
// documents masquerading as photos.
const maxPhotoBytes = 10 << 20

var photoClient = &http.Client{Timeout: 60 * time.Second}

// downloadPhotoDataURL fetches the photo behind fileID and encodes it as a
// data URL the completion backend accepts as an image_url part.
func (b *Bot) downloadPhotoDataURL(ctx context.Context, fileID string) (string, error) {
	downloadURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := photoClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("download photo status: %d", resp.StatusCode)
	}
	if resp.ContentLength > maxPhotoBytes {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("photo too large: %d bytes", resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if len(data) > maxPhotoBytes {
		return "", fmt.Errorf("photo too large: over %d bytes", maxPhotoBytes)
	}

	mime := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	if mime == "" {
		mime = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)), nil
}
