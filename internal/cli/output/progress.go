package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// FrameMeter displays a running count of sent frames on one line.
type FrameMeter struct {
	w     io.Writer
	title string
	total int
	width int
	now   func() time.Time

	mu     sync.Mutex
	frames int
	bytes  int64
	start  time.Time
}

// NewFrameMeter creates a meter. total may be 0 when the frame count is
// open ended.
func NewFrameMeter(w io.Writer, title string, total int) *FrameMeter {
	return &FrameMeter{w: w, title: title, total: total, width: 30, now: time.Now}
}

// Add records one sent frame of n bytes and redraws the line.
func (m *FrameMeter) Add(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.start.IsZero() {
		m.start = m.now()
	}
	m.frames++
	m.bytes += int64(n)
	m.render()
}

// Frames returns the number of frames recorded so far.
func (m *FrameMeter) Frames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

// Finish draws the final state and ends the line.
func (m *FrameMeter) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.render()
	fmt.Fprintln(m.w)
}

func (m *FrameMeter) render() {
	rate := 0.0
	if elapsed := m.now().Sub(m.start).Seconds(); elapsed > 0 {
		rate = float64(m.frames) / elapsed
	}

	if m.total <= 0 {
		fmt.Fprintf(m.w, "\r%s %d frames, %s, %.1f fps", m.title, m.frames, formatBytes(m.bytes), rate)
		return
	}

	percent := float64(m.frames) / float64(m.total)
	if percent > 1 {
		percent = 1
	}
	filled := int(float64(m.width) * percent)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", m.width-filled)
	fmt.Fprintf(m.w, "\r%s [%s] %d/%d frames, %s, %.1f fps",
		m.title, bar, m.frames, m.total, formatBytes(m.bytes), rate)
}

// formatBytes formats bytes to human readable string.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
