// Package fileprobe checks whether stored file URLs are currently
// retrievable before a product is allowed into checkout.
package fileprobe

import (
	"context"
	"time"

	"github.com/guonaihong/gout"
	"github.com/pkg/errors"
)

// Prober reports whether a file URL is reachable. Implementations must
// bound their wait.
type Prober interface {
	Probe(ctx context.Context, url string) error
}

// HTTPProber issues a metadata-only HEAD request with a bounded timeout.
// Any non-2xx status, timeout or network error counts as unreachable.
type HTTPProber struct {
	timeout time.Duration
}

func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProber{timeout: timeout}
}

func (p *HTTPProber) Probe(ctx context.Context, url string) error {
	var code int
	err := gout.HEAD(url).
		WithContext(ctx).
		SetTimeout(p.timeout).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrap(err, "file probe request failed")
	}
	if code < 200 || code >= 300 {
		return errors.Errorf("file probe returned status %d", code)
	}
	return nil
}
