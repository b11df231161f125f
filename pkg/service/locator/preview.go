package locator

import (
	"context"
	"sync"
	"time"

	"github.com/pwrecorder/pwrecorder/utils"
	"go.uber.org/zap"
)

// RepeatWindow is how long the same locator is ignored after it was previewed.
const RepeatWindow = 750 * time.Millisecond

type Highlighter interface {
	StartPreview(ctx context.Context, url, locator string) error
}

// Previewer highlights the locator found on source lines as the caret moves over them.
type Previewer struct {
	logger    *zap.Logger
	highlight Highlighter
	now       func() time.Time

	mu     sync.Mutex
	url    string
	last   string
	lastAt time.Time
}

func NewPreviewer(logger *zap.Logger, h Highlighter) *Previewer {
	return &Previewer{logger: logger, highlight: h, now: time.Now}
}

// SetURL sets the page locators are previewed on, normally the last url a recording started at.
func (p *Previewer) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

// Line previews the locator on line. It returns the locator it sent, or "" when the line has
// none, no url is set, or the same locator was sent within RepeatWindow.
func (p *Previewer) Line(ctx context.Context, line string) (string, error) {
	locator, ok := ExtractFromLine(line)
	if !ok {
		return "", nil
	}

	p.mu.Lock()
	url := p.url
	now := p.now()
	if utils.IsBlank(url) || (locator == p.last && now.Sub(p.lastAt) < RepeatWindow) {
		p.mu.Unlock()
		return "", nil
	}
	p.last, p.lastAt = locator, now
	p.mu.Unlock()

	p.logger.Debug("previewing locator", zap.String("locator", locator), zap.String("url", url))
	if err := p.highlight.StartPreview(ctx, url, locator); err != nil {
		return "", err
	}
	return locator, nil
}
