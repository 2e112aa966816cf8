// Package arxiv provides a paper source adapter that downloads
// submission source archives from arXiv.
package arxiv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/core/ports/driven"
	"github.com/custodia-labs/paperag/internal/extract"
	"github.com/custodia-labs/paperag/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.PaperSource = (*Source)(nil)

// Default configuration values.
const (
	DefaultBaseURL       = "https://arxiv.org"
	DefaultTimeout       = 60 * time.Second
	DefaultRatePerSecond = 1.0

	// maxPayloadBytes caps a single download. Source archives on
	// arXiv are rarely above a few tens of megabytes.
	maxPayloadBytes = 256 << 20
)

// Config holds configuration for the arXiv source.
type Config struct {
	// BaseURL is the arXiv endpoint (default: https://arxiv.org).
	BaseURL string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// RatePerSecond limits outgoing requests (default: 1/s). arXiv
	// asks automated clients to stay well below burst rates.
	RatePerSecond float64

	// CacheDir, when set, stores downloaded payloads so a retry after
	// a downstream failure does not hit the network again.
	CacheDir string
}

// Source fetches paper source material from arXiv.
type Source struct {
	client   *http.Client
	baseURL  string
	limiter  *rate.Limiter
	cacheDir string
}

// NewSource creates a new arXiv paper source.
func NewSource(cfg Config) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RatePerSecond == 0 {
		cfg.RatePerSecond = DefaultRatePerSecond
	}

	return &Source{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		cacheDir: cfg.CacheDir,
	}
}

// Fetch retrieves the source bundle for a paper. The payload format is
// classified from content, never from the URL or headers.
func (s *Source) Fetch(ctx context.Context, paperID string) (*driven.SourceBundle, error) {
	payload, err := s.cachedPayload(paperID)
	if err != nil {
		payload, err = s.download(ctx, paperID)
		if err != nil {
			return nil, err
		}
		s.cachePayload(paperID, payload)
	}

	return bundleFromPayload(paperID, payload)
}

// download fetches the e-print payload for a paper, honouring the
// rate limit.
func (s *Source) download(ctx context.Context, paperID string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.fetchURL(paperID), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", paperID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", paperID, domain.ErrPaperNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: status %d", paperID, resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read payload for %s: %w", paperID, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%s: %w", paperID, domain.ErrEmptyDocument)
	}
	return payload, nil
}

// fetchURL resolves the request URL. An absolute http(s) locator is
// fetched as is; anything else is treated as an arXiv identifier and
// routed through the e-print endpoint.
func (s *Source) fetchURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return s.baseURL + "/e-print/" + ref
}

// bundleFromPayload classifies a payload and wraps it in a bundle.
func bundleFromPayload(paperID string, payload []byte) (*driven.SourceBundle, error) {
	switch extract.Sniff(payload) {
	case extract.PayloadGzip, extract.PayloadLatex:
		return &driven.SourceBundle{
			PaperID: paperID,
			Format:  driven.FormatLatex,
			Archive: payload,
		}, nil
	case extract.PayloadUnknown, extract.PayloadHTML:
		if text := string(payload); utf8.ValidString(text) {
			return &driven.SourceBundle{
				PaperID: paperID,
				Format:  driven.FormatPlainText,
				Pages:   []string{text},
			}, nil
		}
		return nil, fmt.Errorf("%s: %w", paperID, domain.ErrUnsupportedFormat)
	default:
		// PDF and zip payloads need a renderer this adapter does
		// not carry.
		return nil, fmt.Errorf("%s: %s payload: %w", paperID, extract.Sniff(payload), domain.ErrUnsupportedFormat)
	}
}

// cachedPayload returns a previously downloaded payload, if any.
func (s *Source) cachedPayload(paperID string) ([]byte, error) {
	if s.cacheDir == "" {
		return nil, os.ErrNotExist
	}
	payload, err := os.ReadFile(s.cachePath(paperID))
	if err != nil || len(payload) == 0 {
		return nil, os.ErrNotExist
	}
	logger.Debug("arxiv: cache hit for %s", paperID)
	return payload, nil
}

// cachePayload stores a downloaded payload. Cache failures are logged,
// not returned; the download already succeeded.
func (s *Source) cachePayload(paperID string, payload []byte) {
	if s.cacheDir == "" {
		return
	}
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		logger.Warn("arxiv: create cache dir: %v", err)
		return
	}
	if err := os.WriteFile(s.cachePath(paperID), payload, 0o644); err != nil {
		logger.Warn("arxiv: cache %s: %v", paperID, err)
	}
}

func (s *Source) cachePath(paperID string) string {
	// arXiv IDs can carry a slash in the old scheme (cs/0112017).
	name := strings.ReplaceAll(paperID, "/", "_")
	return filepath.Join(s.cacheDir, name+".payload")
}
