package download

import (
	"fmt"
	"log/slog"
	"time"
)

const progressInterval = time.Second

// progress observes bytes written for one destination and logs transfer
// statistics at most once per interval, plus a final record once the file
// is in place.
type progress struct {
	logger   *slog.Logger
	path     string
	total    int64
	interval time.Duration
	start    time.Time
	last     time.Time
	written  int64
}

func newProgress(logger *slog.Logger, path string, total int64) *progress {
	return &progress{
		logger:   logger,
		path:     path,
		total:    total,
		interval: progressInterval,
		start:    time.Now(),
	}
}

func (p *progress) Write(b []byte) (int, error) {
	p.written += int64(len(b))

	if now := time.Now(); now.Sub(p.last) >= p.interval {
		p.last = now
		p.log("downloading")
	}

	return len(b), nil
}

func (p *progress) done() {
	p.log("download complete")
}

func (p *progress) log(msg string) {
	elapsed := time.Since(p.start)

	pct := "unknown"
	if p.total > 0 {
		pct = fmt.Sprintf("%.1f%%", float64(p.written)/float64(p.total)*100)
	}

	var mbps float64
	if s := elapsed.Seconds(); s > 0 {
		mbps = float64(p.written) / s / (1 << 20)
	}

	p.logger.Info(msg,
		slog.String("path", p.path),
		slog.String("progress", pct),
		slog.Int64("transferred", p.written),
		slog.Int64("total", p.total),
		slog.Duration("elapsed", elapsed.Round(time.Millisecond)),
		slog.String("mbps", fmt.Sprintf("%.2f", mbps)),
	)
}
