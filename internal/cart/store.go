// Package cart holds the client-owned cart and keeps its durable snapshot in sync.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/indstore/storefront/internal/snapshot"
	pkgerrors "github.com/indstore/storefront/pkg/errors"
	"github.com/indstore/storefront/pkg/logger"
	"github.com/indstore/storefront/pkg/money"
	"github.com/indstore/storefront/pkg/types"
)

// DefaultKey is the snapshot namespace used when Options.Key is empty.
const DefaultKey = "ind_store_pro"

// ErrOutOfStock is returned by Add for products without stock.
var ErrOutOfStock = pkgerrors.New(pkgerrors.CodeValidation, MessageOutOfStock)

// Options configures Open.
type Options struct {
	Key      string
	Notifier Notifier
	Logger   *logger.Logger
}

// Store is the cart. All mutations and their snapshot writes are serialized.
type Store struct {
	mu     sync.Mutex
	lines  []types.CartLine
	store  snapshot.Store
	key    string
	notify Notifier
	logg   *logger.Logger
}

// Open rehydrates the cart from store once. A missing or unreadable snapshot
// yields an empty cart.
func Open(ctx context.Context, store snapshot.Store, opts Options) (*Store, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "snapshot store is required")
	}
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Notifier == nil {
		opts.Notifier = discardNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	s := &Store{
		store:  store,
		key:    opts.Key,
		notify: opts.Notifier,
		logg:   opts.Logger,
	}
	s.lines = s.rehydrate(ctx)
	return s, nil
}

func (s *Store) rehydrate(ctx context.Context) []types.CartLine {
	ctx = s.logg.WithField(ctx, "snapshot_key", s.key)

	payload, err := s.store.Load(ctx, s.key)
	if errors.Is(err, snapshot.ErrNotFound) {
		return []types.CartLine{}
	}
	if err != nil {
		s.logg.WarnErr(ctx, "cart snapshot unreadable, starting empty", err)
		return []types.CartLine{}
	}

	var decoded []types.CartLine
	if err := json.Unmarshal(payload, &decoded); err != nil {
		s.logg.WarnErr(ctx, "cart snapshot corrupt, starting empty", err)
		return []types.CartLine{}
	}
	return normalize(decoded)
}

// normalize drops non-positive quantities and merges duplicate product ids.
func normalize(lines []types.CartLine) []types.CartLine {
	out := make([]types.CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			continue
		}
		if i, ok := index[line.Product.ID]; ok {
			out[i].Quantity += line.Quantity
			continue
		}
		index[line.Product.ID] = len(out)
		out = append(out, line)
	}
	return out
}

// Add increments the product's line or appends a new one with quantity 1.
func (s *Store) Add(ctx context.Context, product types.Product) error {
	ctx = s.logg.WithProductID(ctx, product.ID)

	if !product.InStock() {
		s.notify.Notify(ctx, Notice{Kind: NoticeError, Message: MessageOutOfStock, ProductID: product.ID})
		return ErrOutOfStock
	}

	s.mu.Lock()
	found := false
	for i := range s.lines {
		if s.lines[i].Product.ID == product.ID {
			s.lines[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		s.lines = append(s.lines, types.CartLine{Product: product, Quantity: 1})
	}
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify.Notify(ctx, Notice{Kind: NoticeSuccess, Message: MessageSecured, ProductID: product.ID})
	return nil
}

// Remove deletes the line for productID. Unknown ids are ignored.
func (s *Store) Remove(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.lines[:0:0]
	for _, line := range s.lines {
		if line.Product.ID != productID {
			next = append(next, line)
		}
	}
	s.lines = next
	s.persistLocked(s.logg.WithProductID(ctx, productID))
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = []types.CartLine{}
	s.persistLocked(ctx)
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []types.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.CartLine, len(s.lines))
	for i, line := range s.lines {
		out[i] = line
		if line.Product.Images != nil {
			out[i].Product.Images = make([]string, len(line.Product.Images))
			copy(out[i].Product.Images, line.Product.Images)
		}
	}
	return out
}

// Len is the number of distinct products in the cart.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// Total is Σ price × quantity, recomputed on every call.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(money.LineTotal(money.FromFloat(line.Product.Price), line.Quantity))
	}
	return total
}

// persistLocked writes the full snapshot. Failures are logged, never returned.
func (s *Store) persistLocked(ctx context.Context) {
	payload, err := json.Marshal(s.lines)
	if err != nil {
		s.logg.Error(ctx, "encode cart snapshot", err)
		return
	}
	if err := s.store.Save(ctx, s.key, payload); err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "snapshot_key", s.key), "persist cart snapshot", err)
	}
}
