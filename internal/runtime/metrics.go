package runtime

import (
	"time"

	logpkg "github.com/rzbill/logbook/pkg/log"
)

// slowRead is the latency above which a single read is logged.
const slowRead = 20 * time.Millisecond

// storageMetrics reports Pebble observations through the process logger at
// debug level. Reads are only reported when slow.
type storageMetrics struct {
	logger logpkg.Logger
}

func newStorageMetrics(logger logpkg.Logger) storageMetrics {
	return storageMetrics{logger: logger.With(logpkg.Component("storage"))}
}

func (m storageMetrics) ObserveWrite(elapsed time.Duration, bytes int) {
	m.logger.Debug("storage write", logpkg.Duration("elapsed", elapsed), logpkg.Int("bytes", bytes))
}

func (m storageMetrics) ObserveRead(elapsed time.Duration, bytes int) {
	if elapsed < slowRead {
		return
	}
	m.logger.Debug("slow storage read", logpkg.Duration("elapsed", elapsed), logpkg.Int("bytes", bytes))
}

func (m storageMetrics) ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int) {
	m.logger.Debug("storage batch commit",
		logpkg.Duration("elapsed", elapsed),
		logpkg.Int("ops", numOps),
		logpkg.Int("bytes", bytes))
}
