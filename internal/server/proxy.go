package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/pitwall/internal/common"
	"github.com/ternarybob/pitwall/internal/storage/badger"
)

const (
	proxyPrefix     = "/api/f1/"
	defaultF1Path   = "current"
	maxUpstreamBody = 10 << 20
)

// Proxy forwards /api/f1/<path> to the upstream F1 results API and caches successful responses.
type Proxy struct {
	upstream  string
	userAgent string
	ttl       time.Duration
	client    *http.Client
	limiter   *rate.Limiter
	maxBody   int64
	cache     *badger.ResponseCache
	logger    arbor.ILogger
}

// NewProxy creates the proxy from the [proxy] config section.
func NewProxy(config *common.Config, cache *badger.ResponseCache, logger arbor.ILogger) *Proxy {
	limit := rate.Inf
	if config.Proxy.RateLimit > 0 {
		limit = rate.Limit(config.Proxy.RateLimit)
	}
	burst := config.Proxy.Burst
	if burst < 1 {
		burst = 1
	}

	return &Proxy{
		upstream:  strings.TrimRight(config.Proxy.UpstreamURL, "/"),
		userAgent: config.Proxy.UserAgent,
		ttl:       config.CacheTTL(),
		client:    &http.Client{Timeout: config.RequestTimeout()},
		limiter:   rate.NewLimiter(limit, burst),
		maxBody:   maxUpstreamBody,
		cache:     cache,
		logger:    logger,
	}
}

// UpstreamURL maps a request path under /api/f1/ to the upstream URL. An empty path means "current".
func (p *Proxy) UpstreamURL(r *http.Request) string {
	apiPath := strings.TrimPrefix(r.URL.Path, proxyPrefix)
	if apiPath == "" || apiPath == r.URL.Path {
		apiPath = defaultF1Path
	}
	target := p.upstream + "/" + apiPath
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return target
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	target := p.UpstreamURL(r)

	cached, err := p.cache.Get(target)
	if err != nil {
		p.logger.Warn().Err(err).Str("url", target).Msg("Cache read failed - fetching upstream")
	}
	if cached != nil {
		p.writeBody(w, cached.Status, cached.ContentType, "HIT", cached.Body)
		return
	}

	if err := p.limiter.Wait(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "Failed to fetch from upstream",
			"message": err.Error(),
		})
		return
	}

	status, body, err := p.fetch(r, target)
	if err != nil {
		p.logger.Warn().Err(err).Str("url", target).Msg("Upstream request failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "Failed to fetch from upstream",
			"message": err.Error(),
		})
		return
	}

	if status < 200 || status > 299 {
		p.logger.Warn().Int("status", status).Str("url", target).Msg("Upstream API error")
		writeJSON(w, status, map[string]interface{}{
			"error":  "Upstream API error",
			"status": status,
		})
		return
	}

	if err := p.cache.Put(target, http.StatusOK, "application/json", body); err != nil {
		p.logger.Warn().Err(err).Str("url", target).Msg("Cache write failed")
	}
	p.writeBody(w, http.StatusOK, "application/json", "MISS", body)
}

func (p *Proxy) fetch(r *http.Request, target string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	// One byte past the limit tells a full body from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody+1))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read upstream body: %w", err)
	}
	if int64(len(body)) > p.maxBody {
		return 0, nil, fmt.Errorf("upstream body exceeds %d bytes", p.maxBody)
	}
	return resp.StatusCode, body, nil
}

func (p *Proxy) writeBody(w http.ResponseWriter, status int, contentType, cacheState string, body []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Cache-Control", "public, max-age="+strconv.Itoa(int(p.ttl.Seconds())))
	h.Set("X-Cache", cacheState)
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	w.Write(body)
}
