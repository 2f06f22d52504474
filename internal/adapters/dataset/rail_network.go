package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"intermodal-route-service/internal/platform/httpx"
	"intermodal-route-service/internal/platform/metrics"
	"intermodal-route-service/internal/platform/obs"
	"intermodal-route-service/internal/ports"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	arcgisProvider  = "arcgis"
	defaultPageSize = 2000
	maxPages        = 500
)

func decodeFeatureCollection(b []byte) (*ports.RailNetwork, error) {
	var fc ports.RailNetwork
	if err := json.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("decode feature collection: unexpected type %q", fc.Type)
	}
	if fc.Features == nil {
		fc.Features = []json.RawMessage{}
	}
	return &fc, nil
}

// LoadRailNetworkFile reads a GeoJSON FeatureCollection from disk.
func LoadRailNetworkFile(path string) (*ports.RailNetwork, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rail network: read %q: %w", path, err)
	}
	fc, err := decodeFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("load rail network: %q: %w", path, err)
	}
	return fc, nil
}

// FileRailNetwork serves a rail network stored on disk.
type FileRailNetwork struct {
	Path string
}

func (f FileRailNetwork) RailNetwork(ctx context.Context) (*ports.RailNetwork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadRailNetworkFile(f.Path)
}

// ArcGISClient pages through a FeatureServer layer query and returns all
// features as one collection.
type ArcGISClient struct {
	client   *httpx.Client
	queryURL string
	pageSize int
	metrics  *metrics.Collector
}

func NewArcGISClient(queryURL string, timeout time.Duration, m *metrics.Collector, opts ...httpx.Option) (*ArcGISClient, error) {
	queryURL = strings.TrimSpace(queryURL)
	if queryURL == "" {
		return nil, errors.New("arcgis query url is empty")
	}
	if _, err := url.Parse(queryURL); err != nil {
		return nil, fmt.Errorf("arcgis query url: %w", err)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ArcGISClient{
		client:   httpx.New(timeout, opts...),
		queryURL: queryURL,
		pageSize: defaultPageSize,
		metrics:  m,
	}, nil
}

// URL identifies the layer; it doubles as the cache key.
func (c *ArcGISClient) URL() string { return c.queryURL }

type arcgisPage struct {
	Type                  string            `json:"type"`
	Features              []json.RawMessage `json:"features"`
	ExceededTransferLimit bool              `json:"exceededTransferLimit"`
	Properties            struct {
		ExceededTransferLimit bool `json:"exceededTransferLimit"`
	} `json:"properties"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p arcgisPage) more() bool {
	return p.ExceededTransferLimit || p.Properties.ExceededTransferLimit
}

func (c *ArcGISClient) RailNetwork(ctx context.Context) (*ports.RailNetwork, error) {
	return c.FetchRailNetwork(ctx)
}

func (c *ArcGISClient) FetchRailNetwork(ctx context.Context) (_ *ports.RailNetwork, err error) {
	defer obs.Time(ctx, "arcgis.FetchRailNetwork")(&err)

	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		c.metrics.ObserveProvider(arcgisProvider, outcome, start)
	}()

	out := &ports.RailNetwork{Type: "FeatureCollection", Features: []json.RawMessage{}}

	for page, offset := 0, 0; page < maxPages; page, offset = page+1, offset+c.pageSize {
		batch, err := c.fetchPage(ctx, offset)
		if err != nil {
			return nil, fmt.Errorf("fetch rail network: offset %d: %w", offset, err)
		}
		if len(batch.Features) == 0 {
			break
		}
		out.Features = append(out.Features, batch.Features...)
		if !batch.more() && len(batch.Features) < c.pageSize {
			break
		}
	}

	log.Printf("rail network fetched: features=%d", len(out.Features))
	return out, nil
}

func (c *ArcGISClient) fetchPage(ctx context.Context, offset int) (arcgisPage, error) {
	makeReq := func() (*http.Request, error) {
		req, err := c.client.NewRequest(ctx, http.MethodGet, c.queryURL, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("where", "1=1")
		q.Set("outFields", "*")
		q.Set("outSR", "4326")
		q.Set("returnGeometry", "true")
		q.Set("geometryPrecision", "5")
		q.Set("f", "geojson")
		q.Set("resultOffset", strconv.Itoa(offset))
		q.Set("resultRecordCount", strconv.Itoa(c.pageSize))
		req.URL.RawQuery = q.Encode()
		return req, nil
	}

	resp, err := c.client.DoWithRetry(ctx, makeReq)
	if err != nil {
		return arcgisPage{}, err
	}
	defer resp.Body.Close()

	var page arcgisPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return arcgisPage{}, fmt.Errorf("decode page: %w", err)
	}
	if page.Error != nil {
		return arcgisPage{}, fmt.Errorf("arcgis error %d: %s", page.Error.Code, page.Error.Message)
	}
	return page, nil
}

// CachedRailNetwork memoizes a rail network for the life of the process.
// A miss consults the optional blob cache before the source; concurrent
// misses share one fetch. Failures are not memoized.
type CachedRailNetwork struct {
	source ports.RailNetworkSource
	blobs  ports.BlobCache
	key    string

	group singleflight.Group
	mu    sync.RWMutex
	value *ports.RailNetwork
}

func NewCachedRailNetwork(source ports.RailNetworkSource, blobs ports.BlobCache, key string) *CachedRailNetwork {
	return &CachedRailNetwork{source: source, blobs: blobs, key: "rail_network:" + key}
}

func (c *CachedRailNetwork) RailNetwork(ctx context.Context) (*ports.RailNetwork, error) {
	c.mu.RLock()
	v := c.value
	c.mu.RUnlock()
	if v != nil {
		return v, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(c.key, func() (any, error) {
		return c.fetch(flightCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("rail network: %w", res.Err)
		}
		return res.Val.(*ports.RailNetwork), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("rail network: %w", ctx.Err())
	}
}

// fetch runs detached from the caller that started it, so one cancelled
// request does not fail the others waiting on the same load.
func (c *CachedRailNetwork) fetch(ctx context.Context) (*ports.RailNetwork, error) {
	if c.blobs != nil {
		b, ok, err := c.blobs.Get(ctx, c.key)
		if err != nil {
			log.Printf("rail network blob read failed: key=%s err=%v", c.key, err)
		} else if ok {
			fc, err := decodeFeatureCollection(b)
			if err == nil {
				c.store(fc)
				return fc, nil
			}
			log.Printf("rail network blob corrupt: key=%s err=%v", c.key, err)
		}
	}

	fc, err := c.source.RailNetwork(ctx)
	if err != nil {
		return nil, err
	}

	if c.blobs != nil {
		b, err := json.Marshal(fc)
		if err == nil {
			err = c.blobs.Set(ctx, c.key, b)
		}
		if err != nil {
			log.Printf("rail network blob write failed: key=%s err=%v", c.key, err)
		}
	}

	c.store(fc)
	return fc, nil
}

func (c *CachedRailNetwork) store(fc *ports.RailNetwork) {
	c.mu.Lock()
	c.value = fc
	c.mu.Unlock()
}
