package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/indstore/storefront/pkg/errors"
	"github.com/indstore/storefront/pkg/httpclient"
	"github.com/indstore/storefront/pkg/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/", httpclient.New(httpclient.Options{Name: "catalog", Timeout: 2 * time.Second}, nil), nil)
	require.NoError(t, err)
	return c, srv
}

func TestLoadProductsNormalizesPayload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"a","name":"CNC Lathe","description":"5-axis","price":1000,"category":"Machining","images":["https://img/a.png"]},
			{"id":"b","name":"Robotic Arm","description":"","price":2500,"stock":0,"category":"Robotics","images":null}
		]`))
	})

	got, err := c.LoadProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, types.DefaultStock, got[0].Stock, "missing stock defaults to 10")
	assert.Equal(t, []string{"https://img/a.png"}, got[0].Images)
	assert.Equal(t, 0, got[1].Stock, "explicit zero stock is kept")
	assert.NotNil(t, got[1].Images)
	assert.Empty(t, got[1].Images)
}

func TestLoadProductsReturnsEmptyOnServerError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	got, err := c.LoadProducts(context.Background())
	require.Error(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestLoadProductsReturnsEmptyOnBadPayload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	got, err := c.LoadProducts(context.Background())
	require.Error(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadProductsReturnsEmptyOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, httpclient.New(httpclient.Options{}, nil), nil)
	require.NoError(t, err)

	got, err := c.LoadProducts(context.Background())
	require.Error(t, err)
	assert.Empty(t, got)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestLoadProductsEmptyCatalogIsNotAnError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	got, err := c.LoadProducts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestConcurrentLoadsShareOneRequest(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(`[{"id":"a","name":"Lathe","price":1,"category":"M","images":[]}]`))
	})

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]types.Product, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := c.LoadProducts(context.Background())
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	for _, got := range results {
		assert.Len(t, got, 1)
	}
}

func TestLoadProductsHonoursCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`[]`))
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	got, err := c.LoadProducts(ctx)
	require.Error(t, err)
	assert.Empty(t, got)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClientValidatesInput(t *testing.T) {
	_, err := NewClient(" ", http.DefaultClient, nil)
	require.Error(t, err)
	_, err = NewClient("http://localhost:3001", nil, nil)
	require.Error(t, err)
}
