package pricelist

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/redis/go-redis/v9"

	u "arkana/internal/utils"
)

// ErrDisabled is returned when the price list export is switched off.
var ErrDisabled = errors.New("price list export disabled")

// RenderFunc turns an HTML document into a PDF.
type RenderFunc func(ctx context.Context, html string, cfg u.PriceListConfig) ([]byte, error)

// Service renders the price list PDF and caches results in Redis.
type Service struct {
	Config u.PriceListConfig
	Redis  *redis.Client
	Render RenderFunc
}

// NewService creates a Service using headless Chrome. rdb may be nil to
// disable caching.
func NewService(cfg u.PriceListConfig, rdb *redis.Client) *Service {
	return &Service{Config: cfg, Redis: rdb, Render: renderWithChrome}
}

func (s *Service) Enabled() bool { return s != nil && s.Config.Enabled }

// PDF returns the PDF for html, serving a cached copy when one exists.
func (s *Service) PDF(ctx context.Context, html string) ([]byte, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	key := cacheKey(html, s.Config)

	if cached := s.cached(ctx, key); cached != nil {
		return cached, nil
	}

	timeout := time.Duration(s.Config.TimeoutSecs) * time.Second
	renderCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pdf, err := s.Render(renderCtx, html, s.Config)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, pdf)
	return pdf, nil
}

// cacheKey is a SHA256 over the document and the page settings.
func cacheKey(html string, cfg u.PriceListConfig) string {
	h := sha256.New()
	h.Write([]byte(html))
	h.Write([]byte(strconv.FormatFloat(cfg.PaperWidth, 'f', 2, 64)))
	h.Write([]byte(strconv.FormatFloat(cfg.PaperHeight, 'f', 2, 64)))
	h.Write([]byte(strconv.FormatFloat(cfg.Margin, 'f', 2, 64)))
	return "pricelist:" + hex.EncodeToString(h.Sum(nil))
}

func (s *Service) cached(ctx context.Context, key string) []byte {
	if s.Redis == nil {
		return nil
	}
	ctxRedis, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	data, err := s.Redis.Get(ctxRedis, key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		u.Warn("Redis read failed", "error", err)
		return nil
	}
	u.Debug("Price list cache hit", "key", key)
	return data
}

func (s *Service) store(ctx context.Context, key string, data []byte) {
	if s.Redis == nil {
		return
	}
	ctxRedis, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	ttl := s.Config.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.Redis.Set(ctxRedis, key, data, ttl).Err(); err != nil {
		u.Warn("Redis write failed", "error", err)
	}
}

// renderWithChrome starts a headless Chrome for one document.
func renderWithChrome(ctx context.Context, html string, cfg u.PriceListConfig) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "chromedata-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp profile dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(tmpDir),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}
	if cfg.ChromeNoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	chromeCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var pdf []byte
	err = chromedp.Run(chromeCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(cfg.PaperWidth).
				WithPaperHeight(cfg.PaperHeight).
				WithMarginTop(cfg.Margin).
				WithMarginBottom(cfg.Margin).
				WithMarginLeft(cfg.Margin).
				WithMarginRight(cfg.Margin).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}
