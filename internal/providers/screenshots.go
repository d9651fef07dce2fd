package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/proximodev/releasepass/internal/catalog"
	"github.com/proximodev/releasepass/internal/qa"
)

const (
	screenshotsProviderName = "screenshots"

	CodeScreenshotCaptured = "SCREENSHOT_CAPTURED"
)

var screenshotNames = map[string]string{
	CodeScreenshotCaptured: "Screenshot captured",
}

// screenshotViewports are the device profiles captured per URL.
var screenshotViewports = []string{"desktop", "mobile"}

// Screenshots captures page renderings through the remote capture service and
// archives them in the blob store. Every archived image is a PASS finding
// carrying the artifact URI; a capture or archive failure is an operational
// error for the URL.
type Screenshots struct {
	client   *apiClient
	endpoint string
	blobs    qa.BlobStore
	resolve  resolver
	logger   *zap.Logger
}

func NewScreenshots(endpoint, apiKey string, timeout time.Duration, policy qa.RetryPolicy, blobs qa.BlobStore, cat *catalog.Catalog, logger *zap.Logger) *Screenshots {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Screenshots{
		client:   newAPIClient(timeout, policy, apiKey, logger),
		endpoint: endpoint,
		blobs:    blobs,
		resolve: resolver{
			provider: screenshotsProviderName,
			catalog:  cat,
			names:    screenshotNames,
		},
		logger: logger,
	}
}

func (s *Screenshots) Name() string { return screenshotsProviderName }

func (s *Screenshots) Check(ctx context.Context, target Target) ([]Report, error) {
	if s.endpoint == "" {
		return nil, &qa.ConfigError{Reason: "screenshot provider endpoint not configured"}
	}
	if s.blobs == nil {
		return nil, &qa.ConfigError{Reason: "screenshot provider requires a blob store"}
	}

	var items []qa.ResultItem
	total := 0
	for _, viewport := range screenshotViewports {
		uri, size, err := s.capture(ctx, target, viewport)
		if err != nil {
			return nil, fmt.Errorf("capture %s (%s): %w", target.URL, viewport, err)
		}
		total += size
		items = append(items, s.resolve.pass(CodeScreenshotCaptured, map[string]any{
			"viewport": viewport,
			"uri":      uri,
			"bytes":    size,
		}))
	}
	return singleReport(markIgnored(items, target.IgnoredCodes), map[string]any{
		"captures":   len(items),
		"totalBytes": total,
	}), nil
}

func (s *Screenshots) capture(ctx context.Context, target Target, viewport string) (string, int, error) {
	q := url.Values{}
	q.Set("url", target.URL)
	q.Set("viewport", viewport)

	data, contentType, err := s.client.getBytes(ctx, s.endpoint+"?"+q.Encode())
	if err != nil {
		return "", 0, err
	}
	if len(data) == 0 {
		return "", 0, fmt.Errorf("capture service returned an empty image for %s", target.URL)
	}
	if contentType == "" {
		contentType = "image/png"
	}

	path := fmt.Sprintf("screenshots/%s/%s/%s.png", target.RunID, viewport, pathSlug(target.URL))
	uri, err := s.blobs.PutObject(ctx, path, contentType, data)
	if err != nil {
		return "", 0, fmt.Errorf("archive screenshot for %s: %w", target.URL, err)
	}
	return uri, len(data), nil
}

// pathSlug flattens a URL into a blob-path-safe segment.
func pathSlug(raw string) string {
	slug := strings.TrimPrefix(raw, "https://")
	slug = strings.TrimPrefix(slug, "http://")
	slug = strings.Trim(slug, "/")
	replacer := strings.NewReplacer("/", "_", "?", "_", "&", "_", "#", "_", "=", "_", ":", "_")
	slug = replacer.Replace(slug)
	if slug == "" {
		slug = "root"
	}
	return slug
}
