package cart

import "context"

// NoticeKind classifies a user-facing cart message.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

const (
	MessageOutOfStock = "Out of Stock"
	MessageSecured    = "Asset Secured in Cart"
)

// Notice is a transient message for the UI (toast, CLI line).
type Notice struct {
	Kind      NoticeKind
	Message   string
	ProductID string
}

// Notifier receives notices after the mutation that produced them completed.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

func (f NotifierFunc) Notify(ctx context.Context, n Notice) {
	f(ctx, n)
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, Notice) {}
