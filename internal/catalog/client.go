// Package catalog fetches the product collection from the catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/indstore/storefront/pkg/errors"
	"github.com/indstore/storefront/pkg/httpclient"
	"github.com/indstore/storefront/pkg/logger"
	"github.com/indstore/storefront/pkg/types"
)

const (
	productsPath  = "/products"
	maxBodyBytes  = 8 << 20
	flightListKey = "products"
)

// Doer is satisfied by *httpclient.Client and *http.Client.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client loads products. Concurrent LoadProducts calls share one request.
type Client struct {
	baseURL string
	http    Doer
	logg    *logger.Logger
	group   singleflight.Group
}

// wireProduct mirrors the catalog payload, where stock and images may be absent.
type wireProduct struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Stock       *int     `json:"stock"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
}

// NewClient builds a catalog client for baseURL.
func NewClient(baseURL string, doer Doer, logg *logger.Logger) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("catalog base url is required")
	}
	if doer == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Client{baseURL: baseURL, http: doer, logg: logg}, nil
}

// LoadProducts never returns a nil slice. On failure it returns an empty
// slice and a DEPENDENCY_ERROR that has already been logged.
func (c *Client) LoadProducts(ctx context.Context) ([]types.Product, error) {
	// The shared request outlives any single caller; the http client timeout bounds it.
	ch := c.group.DoChan(flightListKey, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx))
	})

	var (
		v   any
		err error
	)
	select {
	case <-ctx.Done():
		err = pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "catalog request cancelled")
	case res := <-ch:
		v, err = res.Val, res.Err
	}
	if err != nil {
		c.logg.Error(c.logg.WithField(ctx, "catalog_url", c.baseURL+productsPath), "catalog load failed", err)
		return []types.Product{}, err
	}
	shared := v.([]types.Product)
	out := make([]types.Product, len(shared))
	copy(out, shared)
	return out, nil
}

func (c *Client) fetch(ctx context.Context) ([]types.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+productsPath, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if httpclient.IsOpen(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog circuit open")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("catalog responded %d", resp.StatusCode)).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	var payload []wireProduct
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog response")
	}

	products := make([]types.Product, 0, len(payload))
	for _, p := range payload {
		products = append(products, p.normalize())
	}
	return products, nil
}

func (w wireProduct) normalize() types.Product {
	stock := types.DefaultStock
	if w.Stock != nil {
		stock = *w.Stock
	}
	images := w.Images
	if images == nil {
		images = []string{}
	}
	return types.Product{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Price:       w.Price,
		Stock:       stock,
		Category:    w.Category,
		Images:      images,
	}
}
