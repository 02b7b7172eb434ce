package progress

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/doctorai/llm-eval/internal/logger"
	"github.com/doctorai/llm-eval/internal/utils"
)

const (
	barWidth    = 30
	maxLabel    = 24
	minInterval = 100 * time.Millisecond
)

// Progress tracks finished comparison jobs and redraws a single terminal line
// through the logger.
type Progress struct {
	label     string
	total     int64
	current   int64
	failed    int64
	startTime time.Time

	mu         sync.Mutex
	lastRender time.Time
	visible    bool
	done       chan struct{}
	stopped    sync.Once
}

func New(label string, total int) *Progress {
	return &Progress{
		label:     utils.TruncateString(label, maxLabel),
		total:     int64(total),
		startTime: time.Now(),
		done:      make(chan struct{}),
	}
}

// Start shows the line and refreshes it every second so elapsed time and ETA
// keep moving between jobs.
func (p *Progress) Start() {
	p.mu.Lock()
	p.visible = true
	p.mu.Unlock()
	p.render(true)

	ticker := time.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				p.render(true)
			}
		}
	}()
}

// Done records one finished job; a non-nil err counts it as failed.
func (p *Progress) Done(err error) {
	current := atomic.AddInt64(&p.current, 1)
	if err != nil {
		atomic.AddInt64(&p.failed, 1)
	}
	p.render(current == p.total)
}

func (p *Progress) Current() int {
	return int(atomic.LoadInt64(&p.current))
}

func (p *Progress) Failed() int {
	return int(atomic.LoadInt64(&p.failed))
}

// Stop clears the line and logs the outcome. It is safe to call twice.
func (p *Progress) Stop() {
	p.stopped.Do(func() {
		close(p.done)

		p.mu.Lock()
		wasVisible := p.visible
		p.visible = false
		p.mu.Unlock()

		if wasVisible {
			logger.ClearProgress()
		}

		current, failed := p.Current(), p.Failed()
		elapsed := time.Since(p.startTime)
		if failed > 0 {
			logger.Error("%s: %d of %d jobs failed", p.label, failed, current)
		} else {
			logger.Success("%s: %d jobs completed in %s", p.label, current, formatDuration(elapsed))
		}
	})
}

func (p *Progress) render(force bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.visible || p.total == 0 {
		return
	}
	now := time.Now()
	if !force && now.Sub(p.lastRender) < minInterval {
		return
	}
	p.lastRender = now
	logger.Progress(p.Line())
}

// Line formats the progress line without the logger prefix.
func (p *Progress) Line() string {
	current := atomic.LoadInt64(&p.current)
	failed := atomic.LoadInt64(&p.failed)

	percent := utils.CalculatePercentage(int(current), int(p.total))

	elapsed := time.Since(p.startTime)
	var eta time.Duration
	var speed float64
	if current > 0 && elapsed > 0 {
		speed = float64(current) / elapsed.Seconds()
		if speed > 0 && current < p.total {
			eta = time.Duration(float64(p.total-current) / speed * float64(time.Second))
		}
	}

	filled := int(float64(barWidth) * percent / 100)
	if filled > barWidth {
		filled = barWidth
	}

	var barColor string
	switch {
	case current == p.total:
		barColor = logger.ColorGreen
	case failed > 0:
		barColor = logger.ERROR.Color()
	default:
		barColor = logger.PROGRESS.Color()
	}

	bar := barColor + strings.Repeat("█", filled) + logger.ColorReset + strings.Repeat("░", barWidth-filled)

	return fmt.Sprintf("%s %s%.1f%%%s|%s| %d/%d %s[%s, %s]%s ETA: %s",
		p.label,
		logger.ColorYellow, percent, logger.ColorReset,
		bar,
		current, p.total,
		logger.ColorGray, formatDuration(elapsed), formatThroughput(speed), logger.ColorReset,
		formatDuration(eta))
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "00:00"
	}

	seconds := int(d.Seconds())
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%02d:%02d", minutes, seconds%60)
	}
	return fmt.Sprintf("%02d:%02d:%02d", minutes/60, minutes%60, seconds%60)
}

func formatThroughput(rate float64) string {
	switch {
	case rate < 1:
		return fmt.Sprintf("%.2f/s", rate)
	case rate < 100:
		return fmt.Sprintf("%.1f/s", rate)
	default:
		return fmt.Sprintf("%.0f/s", rate)
	}
}
