package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/platformkit/identity/internal/core/domain"
)

const defaultTimeout = 5 * time.Second

// Config captures the settings of the geolocation API.
type Config struct {
	APIURI  string
	Timeout time.Duration
}

// Locator describes a client IP as "<ip>, <city>, <country> at <date>"
// using a freeipapi-compatible JSON endpoint. It implements ports.GeoLocator.
type Locator struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
	now        func() time.Time
}

// NewLocator creates a Locator. A default timeout is applied when none is provided.
func NewLocator(cfg Config, log zerolog.Logger) *Locator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Locator{
		baseURL:    strings.TrimRight(cfg.APIURI, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		now:        time.Now,
	}
}

type lookupResponse struct {
	CityName    string `json:"cityName"`
	CountryCode string `json:"countryCode"`
}

// Describe never fails: loopback addresses skip the lookup and any lookup
// error degrades to "<ip> at <date>".
func (l *Locator) Describe(ctx context.Context, ip string) string {
	at := l.now()
	if skipLookup(ip) {
		return domain.DescribeClient(ip, "", "", at)
	}
	loc, err := l.lookup(ctx, ip)
	if err != nil {
		l.log.Warn().Err(err).Msg("geolocation lookup failed")
		return domain.DescribeClient(ip, "", "", at)
	}
	return domain.DescribeClient(ip, loc.CityName, loc.CountryCode, at)
}

func (l *Locator) lookup(ctx context.Context, ip string) (*lookupResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/"+url.PathEscape(ip), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo request: unexpected status %d", resp.StatusCode)
	}
	var out lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode geo response: %w", err)
	}
	return &out, nil
}

func skipLookup(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed == nil || parsed.IsLoopback() || parsed.IsUnspecified()
}
