// Package checkout drives the checkout overlay: cart review, payment method
// selection, session creation and the success screen.
package checkout

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/indstore/storefront/pkg/enums"
	pkgerrors "github.com/indstore/storefront/pkg/errors"
	"github.com/indstore/storefront/pkg/logger"
	"github.com/indstore/storefront/pkg/types"
)

var (
	ErrEmptyCart       = pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	ErrNoPaymentMethod = pkgerrors.New(pkgerrors.CodeValidation, "select a payment method")
	ErrSubmitInFlight  = pkgerrors.New(pkgerrors.CodeStateConflict, "checkout session request already in flight")
	ErrNotInPayment    = pkgerrors.New(pkgerrors.CodeStateConflict, "payment step is not active")
	ErrDismissed       = pkgerrors.New(pkgerrors.CodeStateConflict, "checkout was dismissed")
)

// Cart is the cart surface the machine needs.
type Cart interface {
	Lines() []types.CartLine
	IsEmpty() bool
	Clear(ctx context.Context)
}

// SessionRequest is one attempt at creating a provider checkout session.
type SessionRequest struct {
	Lines          []types.CartLine
	Method         enums.PaymentMethod
	IdempotencyKey string
}

// SessionRequester creates a payable session and returns its redirect URL.
type SessionRequester interface {
	CreateSession(ctx context.Context, req SessionRequest) (string, error)
}

// State is a point-in-time view of the machine.
type State struct {
	Phase       enums.CheckoutPhase
	Method      enums.PaymentMethod
	Processing  bool
	RedirectURL string
}

// Machine is safe for concurrent use. processing is the only guard against
// duplicate session creation.
type Machine struct {
	mu          sync.Mutex
	id          uuid.UUID
	phase       enums.CheckoutPhase
	method      enums.PaymentMethod
	processing  bool
	redirectURL string
	cancel      context.CancelFunc
	generation  uint64
	// attempt seeds the idempotency key for one purchase. Set on entering
	// payment and rotated on success or dismiss.
	attempt uuid.UUID

	cart     Cart
	sessions SessionRequester
	logg     *logger.Logger
}

// NewMachine returns a closed machine.
func NewMachine(cart Cart, sessions SessionRequester, logg *logger.Logger) (*Machine, error) {
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart is required")
	}
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session requester is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Machine{
		id:       uuid.New(),
		phase:    enums.CheckoutPhaseClosed,
		cart:     cart,
		sessions: sessions,
		logg:     logg,
	}, nil
}

// ID identifies this checkout instance in logs.
func (m *Machine) ID() string {
	return m.id.String()
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{
		Phase:       m.phase,
		Method:      m.method,
		Processing:  m.processing,
		RedirectURL: m.redirectURL,
	}
}

// Open shows the overlay at the cart step, whatever the previous state.
func (m *Machine) Open(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.abortLocked()
	from := m.phase
	m.phase = enums.CheckoutPhaseCart
	m.method = enums.PaymentMethodNone
	m.redirectURL = ""
	m.logTransition(ctx, from, "open")
}

// CanProceed reports whether Proceed would succeed.
func (m *Machine) CanProceed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase == enums.CheckoutPhaseCart && !m.cart.IsEmpty()
}

// Proceed moves from the cart step to payment.
func (m *Machine) Proceed(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != enums.CheckoutPhaseCart {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not at the cart step").
			WithDetails(map[string]any{"phase": m.phase.String()})
	}
	if m.cart.IsEmpty() {
		return ErrEmptyCart
	}
	m.phase = enums.CheckoutPhasePayment
	m.attempt = uuid.New()
	m.logTransition(ctx, enums.CheckoutPhaseCart, "proceed")
	return nil
}

// SelectMethod records the gateway choice. Not allowed while a request is in flight.
func (m *Machine) SelectMethod(ctx context.Context, method enums.PaymentMethod) error {
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]any{"method": string(method)})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != enums.CheckoutPhasePayment {
		return ErrNotInPayment
	}
	if m.processing {
		return ErrSubmitInFlight
	}
	m.method = method
	m.logg.Info(m.logg.WithFields(m.logCtx(ctx), map[string]any{"method": method.String()}), "checkout.method_selected")
	return nil
}

// Submit asks the requester for a session. On success the cart is cleared and
// the machine enters success; on failure it stays in payment.
func (m *Machine) Submit(ctx context.Context) (string, error) {
	m.mu.Lock()
	switch {
	case m.phase != enums.CheckoutPhasePayment:
		m.mu.Unlock()
		return "", ErrNotInPayment
	case m.processing:
		m.mu.Unlock()
		return "", ErrSubmitInFlight
	case !m.method.IsValid():
		m.mu.Unlock()
		return "", ErrNoPaymentMethod
	}

	lines := m.cart.Lines()
	if len(lines) == 0 {
		m.mu.Unlock()
		return "", ErrEmptyCart
	}

	reqCtx, cancel := context.WithCancel(ctx)
	m.processing = true
	m.cancel = cancel
	m.generation++
	generation := m.generation
	req := SessionRequest{Lines: lines, Method: m.method, IdempotencyKey: m.idempotencyKey(lines)}
	m.mu.Unlock()

	logCtx := m.logg.WithFields(m.logCtx(ctx), map[string]any{
		"method": req.Method.String(),
		"lines":  len(lines),
	})
	m.logg.Info(logCtx, "checkout.submit")

	url, err := m.sessions.CreateSession(reqCtx, req)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	if generation != m.generation {
		m.logg.Info(logCtx, "checkout.result_ignored")
		return "", ErrDismissed
	}
	m.processing = false
	m.cancel = nil

	if err != nil {
		err = asProviderError(err)
		m.logg.WarnErr(logCtx, "checkout.session_failed", err)
		return "", err
	}

	m.cart.Clear(ctx)
	m.phase = enums.CheckoutPhaseSuccess
	m.redirectURL = url
	m.attempt = uuid.New()
	m.logTransition(logCtx, enums.CheckoutPhasePayment, "success")
	return url, nil
}

// Dismiss closes the overlay from any state and abandons an in-flight request.
func (m *Machine) Dismiss(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.abortLocked()
	from := m.phase
	m.phase = enums.CheckoutPhaseClosed
	m.method = enums.PaymentMethodNone
	m.attempt = uuid.New()
	m.logTransition(ctx, from, "dismiss")
}

// abortLocked cancels the in-flight request and invalidates its late result.
func (m *Machine) abortLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.processing {
		m.generation++
		m.processing = false
	}
}

// idempotencyKey is stable while the same attempt submits the same cart, so a
// retry after a failure replays the stored response. A later purchase of the
// same cart runs under a new attempt and gets a new key.
func (m *Machine) idempotencyKey(lines []types.CartLine) string {
	var b []byte
	for _, line := range lines {
		b = append(b, line.Product.ID...)
		b = append(b, ':')
		b = append(b, byte(line.Quantity>>24), byte(line.Quantity>>16), byte(line.Quantity>>8), byte(line.Quantity))
		b = append(b, ';')
	}
	return uuid.NewSHA1(m.attempt, b).String()
}

func (m *Machine) logCtx(ctx context.Context) context.Context {
	return m.logg.WithCheckoutID(ctx, m.id.String())
}

func (m *Machine) logTransition(ctx context.Context, from enums.CheckoutPhase, event string) {
	m.logg.Info(m.logg.WithFields(m.logCtx(ctx), map[string]any{
		"event": event,
		"from":  from.String(),
		"to":    m.phase.String(),
	}), "checkout.transition")
}

func asProviderError(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeProvider, err, err.Error())
}
