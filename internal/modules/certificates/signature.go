package certificates

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const maxSignatureBytes = 2 << 20

// HTTPSignatureLoader downloads instructor signature images.
type HTTPSignatureLoader struct {
	client *resty.Client
}

func NewHTTPSignatureLoader(timeout time.Duration) *HTTPSignatureLoader {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Accept", "image/png, image/jpeg")
	return &HTTPSignatureLoader{client: client}
}

func (l *HTTPSignatureLoader) Load(ctx context.Context, url string) ([]byte, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("signature url is empty")
	}
	resp, err := l.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch signature: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch signature: status %d", resp.StatusCode())
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("fetch signature: empty body")
	}
	if len(body) > maxSignatureBytes {
		return nil, fmt.Errorf("fetch signature: %d bytes exceeds limit", len(body))
	}
	switch ct := http.DetectContentType(body); ct {
	case "image/png", "image/jpeg":
		return body, nil
	default:
		return nil, fmt.Errorf("fetch signature: unsupported content type %s", ct)
	}
}
