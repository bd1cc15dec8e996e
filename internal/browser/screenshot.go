package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"go-applyflow-automation/internal/storage"
)

// CaptureAndUpload scrolls through the page so lazy content loads, takes a
// full-page screenshot, and uploads it. The local file is removed afterwards.
func CaptureAndUpload(ctx context.Context, page playwright.Page, uploader storage.Uploader, taskID int64) (string, error) {
	if err := HumanScroll(page); err != nil {
		// Screenshot anyway: a partial page beats no evidence.
		_ = err
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("applyflow-shot-%s.png", uuid.New().String()))
	defer os.Remove(path)

	_, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("could not take screenshot: %w", err)
	}

	filename := fmt.Sprintf("task-%d-%s.png", taskID, uuid.New().String()[:8])
	url, err := uploader.Upload(ctx, path, "screenshots", filename)
	if err != nil {
		return "", fmt.Errorf("could not upload screenshot: %w", err)
	}
	return url, nil
}
