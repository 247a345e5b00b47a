// Package avatar скачивает фотографии профилей по внешним URL и складывает
// их в локальный каталог раздачи.
package avatar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Принимаем только растровые картинки, тип проверяется по содержимому,
// а не по расширению в URL.
var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

const maxPhotoSize = 10 << 20

// Fetcher скачивает и сохраняет аватары. ServePrefix — под каким путём
// сохранённые файлы раздаются HTTP-сервером.
type Fetcher struct {
	UploadDir   string
	ServePrefix string

	client *http.Client
}

func New(uploadDir, servePrefix string) *Fetcher {
	return &Fetcher{
		UploadDir:   uploadDir,
		ServePrefix: servePrefix,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch скачивает картинку по url и возвращает локальный URL сохранённого
// файла. Имя файла генерируется, исходное имя из URL не используется.
func (f *Fetcher) Fetch(ctx context.Context, url string, userID int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("avatar: new request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("avatar: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("avatar: fetch: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoSize+1))
	if err != nil {
		return "", fmt.Errorf("avatar: read body: %w", err)
	}
	if len(body) > maxPhotoSize {
		return "", fmt.Errorf("avatar: image larger than %d bytes", maxPhotoSize)
	}

	contentType := http.DetectContentType(head(body))
	ext, ok := imageExt[contentType]
	if !ok {
		return "", fmt.Errorf("avatar: unsupported content type %s", contentType)
	}

	if err := os.MkdirAll(f.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("avatar: create upload dir: %w", err)
	}
	name := fmt.Sprintf("%d_%s%s", userID, uuid.NewString(), ext)
	if err := os.WriteFile(filepath.Join(f.UploadDir, name), body, 0o644); err != nil {
		return "", fmt.Errorf("avatar: save file: %w", err)
	}
	return f.ServePrefix + "/" + name, nil
}

func head(b []byte) []byte {
	if len(b) > 512 {
		return b[:512]
	}
	return b
}
