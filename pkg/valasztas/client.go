// Package valasztas provides a client for the valasztas.hu election map
// portlets: settlement search and per-station map data.
package valasztas

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultBaseURL serves the 2019 polling station map.
const DefaultBaseURL = "https://www.valasztas.hu/szavazokorok_onk2019"

// Default election identifiers used by the 2019 polling station map.
const (
	DefaultVlID  = "294"
	DefaultVltID = "687"
)

// Liferay portlet routing. Both resources live behind the same page URL and
// are addressed purely through query parameters; the per-portlet parameters
// carry the portlet id as a prefix.
const (
	searchPortletID  = "onkszavazokorok_WAR_nvinvrportlet"
	resultsPortletID = "onkszavazokorieredmenyek_WAR_nvinvrportlet"

	searchResourceID  = "resourceIdGetTelepulesOrMegye"
	mapDataResourceID = "resourceIdGetElectionMapData"

	paramKeywords       = "_onkszavazokorok_WAR_nvinvrportlet_keywords"
	paramVlID           = "_onkszavazokorieredmenyek_WAR_nvinvrportlet_vlId"
	paramVltID          = "_onkszavazokorieredmenyek_WAR_nvinvrportlet_vltId"
	paramTabID          = "_onkszavazokorieredmenyek_WAR_nvinvrportlet_tabId"
	paramSettlementCode = "_onkszavazokorieredmenyek_WAR_nvinvrportlet_telepulesKod"
	paramCountyCode     = "_onkszavazokorieredmenyek_WAR_nvinvrportlet_megyeKod"
	paramStationNumber  = "_onkszavazokorieredmenyek_WAR_nvinvrportlet_szavkorSorszam"
)

// Client defines the portlet operations used by the enrichment pipeline.
type Client interface {
	// SearchSettlements returns the settlement entries matching the keyword.
	SearchSettlements(ctx context.Context, keyword string) ([]Settlement, error)

	// StationPolygon returns the boundary of one polling station as drawn on
	// the election map, in path order.
	StationPolygon(ctx context.Context, key StationKey) ([]Point, error)
}

// Settlement is one entry of the settlement search response.
type Settlement struct {
	Name string `json:"telepulesNeve"`
	Code string `json:"telepulesKod"`
}

// Point is a single vertex of a station boundary path.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// StationKey addresses one polling station on the results portlet.
type StationKey struct {
	CountyCode     string
	SettlementCode string
	StationNumber  string
}

// mapDataResponse is the JSON envelope of the map-data resource. The polygon
// paths arrive as a JSON-encoded string, not an inline array.
type mapDataResponse struct {
	Polygon struct {
		Paths string `json:"paths"`
	} `json:"polygon"`
}

// Option configures the portlet client.
type Option func(*httpClient)

// WithBaseURL sets a custom portlet page URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRateLimit sets the requests-per-second limit applied to portlet calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithElection selects a different election instance (vlId/vltId pair).
func WithElection(vlID, vltID string) Option {
	return func(c *httpClient) {
		c.vlID = vlID
		c.vltID = vltID
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

type httpClient struct {
	baseURL   string
	vlID      string
	vltID     string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a portlet client with the given options.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		vlID:    DefaultVlID,
		vltID:   DefaultVltID,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchSettlements queries the settlement/county search resource. The
// response is a flat JSON array; filtering to an exact settlement is the
// caller's concern.
func (c *httpClient) SearchSettlements(ctx context.Context, keyword string) ([]Settlement, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "valasztas: search rate limit")
	}

	params := c.commonParams()
	params.Set("p_p_id", searchPortletID)
	params.Set("p_p_resource_id", searchResourceID)
	params.Set(paramKeywords, keyword)

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "valasztas: settlement search")
	}

	var settlements []Settlement
	if err := json.Unmarshal(body, &settlements); err != nil {
		return nil, eris.Wrap(err, "valasztas: parse settlement search response")
	}
	return settlements, nil
}

// StationPolygon queries the map-data resource for one station and decodes
// the nested paths payload.
func (c *httpClient) StationPolygon(ctx context.Context, key StationKey) ([]Point, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "valasztas: map data rate limit")
	}

	params := c.commonParams()
	params.Set("p_p_id", resultsPortletID)
	params.Set("p_p_resource_id", mapDataResourceID)
	params.Set(paramTabID, "tab2")
	params.Set(paramSettlementCode, key.SettlementCode)
	params.Set(paramCountyCode, key.CountyCode)
	params.Set(paramStationNumber, key.StationNumber)

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "valasztas: map data")
	}

	var data mapDataResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, eris.Wrap(err, "valasztas: parse map data response")
	}
	if data.Polygon.Paths == "" {
		return nil, eris.New("valasztas: map data has no polygon paths")
	}

	var points []Point
	if err := json.Unmarshal([]byte(data.Polygon.Paths), &points); err != nil {
		return nil, eris.Wrap(err, "valasztas: parse polygon paths")
	}
	return points, nil
}

func (c *httpClient) commonParams() url.Values {
	return url.Values{
		"p_p_lifecycle":    {"2"},
		"p_p_state":        {"maximized"},
		"p_p_mode":         {"view"},
		"p_p_cacheability": {"cacheLevelPage"},
		paramVlID:          {c.vlID},
		paramVltID:         {c.vltID},
	}
}

func (c *httpClient) get(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}
	return body, nil
}
