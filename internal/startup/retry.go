package startup

import (
	"os"
	"time"

	"github.com/workchat/internal/logger"
)

// retryUntil повторяет attempt с экспоненциальной задержкой (2s..30s), пока не
// истечёт maxWait. После дедлайна роняет процесс: без зависимостей сервис
// бесполезен.
func retryUntil(what string, maxWait time.Duration, attempt func() error) {
	deadline := time.Now().Add(maxWait)
	backoff := 2 * time.Second
	for {
		err := attempt()
		if err == nil {
			return
		}
		if time.Now().After(deadline) {
			logger.Errorf("%s (gave up after %v): %v", what, maxWait, err)
			os.Exit(1)
		}
		logger.Errorf("%s failed, retry in %v: %v", what, backoff, err)
		time.Sleep(backoff)
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}
