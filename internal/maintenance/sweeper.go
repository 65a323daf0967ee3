package maintenance

import (
	"os"
	"path/filepath"
	"time"

	"smart_cycle_market/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	// DefaultSpec every 30 minutes
	DefaultSpec = "*/30 * * * *"
	// DefaultMaxAge staged files older than this are stale
	DefaultMaxAge = time.Hour
)

// Sweeper removes upload staging leftovers, e.g. from requests that died mid-upload
type Sweeper struct {
	dir    string
	maxAge time.Duration
	now    func() time.Time
}

// NewSweeper create Sweeper for dir
func NewSweeper(dir string, maxAge time.Duration) *Sweeper {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Sweeper{dir: dir, maxAge: maxAge, now: time.Now}
}

// Sweep delete regular files in dir older than maxAge, returns how many went away
func (s *Sweeper) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Log.Warn("staging dir unreadable", zap.String("dir", s.dir), zap.Error(err))
		}
		return 0
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Log.Warn("stale upload not removed", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Log.Info("stale uploads swept", zap.String("dir", s.dir), zap.Int("removed", removed))
	}
	return removed
}

// Schedule register the sweep on a new cron, the caller starts and stops it
func (s *Sweeper) Schedule(spec string) (*cron.Cron, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.Sweep() }); err != nil {
		return nil, err
	}
	return c, nil
}
