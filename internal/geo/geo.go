package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/oschwald/maxminddb-golang"
	"github.com/rs/zerolog/log"
)

// Location carries whatever geolocation data was resolvable. The zero value
// means "unknown" and is what every failure path returns.
type Location struct {
	CountryCode string
	CountryName string
	City        string
	Region      string
	Timezone    string
}

// Resolver looks up IP geolocation, preferring a local MaxMind database and
// falling back to the ip-api.com HTTP service. Both paths are best-effort.
type Resolver struct {
	mmdb       *maxminddb.Reader
	apiBaseURL string
	httpClient *http.Client
}

const httpTimeout = 5 * time.Second

// New builds a resolver. mmdbPath may be empty, in which case only the HTTP
// backend is used. apiBaseURL may be empty to disable the HTTP backend.
func New(mmdbPath, apiBaseURL string) (*Resolver, error) {
	r := &Resolver{
		apiBaseURL: apiBaseURL,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
	if mmdbPath != "" {
		db, err := maxminddb.Open(mmdbPath)
		if err != nil {
			return nil, fmt.Errorf("open geoip database: %w", err)
		}
		r.mmdb = db
	}
	return r, nil
}

func (r *Resolver) Close() {
	if r != nil && r.mmdb != nil {
		r.mmdb.Close()
	}
}

// Lookup resolves a public IP. Private, loopback and link-local addresses
// short-circuit to the zero Location without touching any backend.
func (r *Resolver) Lookup(ctx context.Context, ipStr string) Location {
	ip := net.ParseIP(ipStr)
	if ip == nil || !isPublic(ip) {
		return Location{}
	}

	if r.mmdb != nil {
		if loc, ok := r.lookupLocal(ip); ok {
			return loc
		}
	}
	if r.apiBaseURL != "" {
		return r.lookupHTTP(ctx, ipStr)
	}
	return Location{}
}

func (r *Resolver) lookupLocal(ip net.IP) (Location, bool) {
	var record struct {
		Country struct {
			ISOCode string            `maxminddb:"iso_code"`
			Names   map[string]string `maxminddb:"names"`
		} `maxminddb:"country"`
		City struct {
			Names map[string]string `maxminddb:"names"`
		} `maxminddb:"city"`
		Subdivisions []struct {
			Names map[string]string `maxminddb:"names"`
		} `maxminddb:"subdivisions"`
		Location struct {
			TimeZone string `maxminddb:"time_zone"`
		} `maxminddb:"location"`
	}

	if err := r.mmdb.Lookup(ip, &record); err != nil {
		log.Debug().Err(err).Str("ip", ip.String()).Msg("mmdb lookup failed")
		return Location{}, false
	}
	if record.Country.ISOCode == "" {
		return Location{}, false
	}

	loc := Location{
		CountryCode: record.Country.ISOCode,
		CountryName: record.Country.Names["en"],
		City:        record.City.Names["en"],
		Timezone:    record.Location.TimeZone,
	}
	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].Names["en"]
	}
	return loc, true
}

type apiResponse struct {
	Status      string `json:"status"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	RegionName  string `json:"regionName"`
	City        string `json:"city"`
	Timezone    string `json:"timezone"`
}

func (r *Resolver) lookupHTTP(ctx context.Context, ip string) Location {
	url := fmt.Sprintf("%s/json/%s?fields=status,message,country,countryCode,regionName,city,timezone", r.apiBaseURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Location{}
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("ip", ip).Msg("geoip request failed")
		return Location{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debug().Int("status", resp.StatusCode).Str("ip", ip).Msg("geoip non-200 response")
		return Location{}
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Debug().Err(err).Str("ip", ip).Msg("geoip decode failed")
		return Location{}
	}
	if body.Status != "success" {
		return Location{}
	}

	return Location{
		CountryCode: body.CountryCode,
		CountryName: body.Country,
		City:        body.City,
		Region:      body.RegionName,
		Timezone:    body.Timezone,
	}
}

// isPublic rejects loopback, RFC-1918, link-local and private IPv6 ranges.
func isPublic(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return false
	}
	if ip.IsPrivate() {
		return false
	}
	return true
}
