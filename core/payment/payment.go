package payment

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

type Status string

const (
	StatusCreated   Status = "created"
	StatusApproved  Status = "approved"
	StatusCancelled Status = "cancelled"
)

// Intent is a provider-side record of a requested charge, with an
// approval redirect the user must follow to complete it.
type Intent struct {
	ID          string `json:"id"`
	Total       string `json:"total"`
	Currency    string `json:"currency"`
	Status      Status `json:"status"`
	ApprovalURL string `json:"approval_url,omitempty"`
}

type Item struct {
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	Quantity int    `json:"quantity"`
}

// Charge describes a sale to be created at the provider.
type Charge struct {
	Total       string
	Currency    string
	Description string
	Items       []Item
	ReturnURL   string
	CancelURL   string
}

// Gateway abstracts the external payment provider. Confirmation is
// externally triggered (browser redirect back to the app), so callers must
// be resumable from persisted signup state rather than an in-memory stack.
type Gateway interface {
	// CreateIntent requests a new charge; the returned Intent carries the
	// approval redirect. Provider rejections surface as *CreationError.
	CreateIntent(ctx context.Context, charge Charge) (Intent, error)
	// ConfirmIntent reconciles the redirect outcome; the returned Intent
	// status is either StatusApproved or StatusCancelled.
	ConfirmIntent(ctx context.Context, intentID, payerID string) (Intent, error)
}

// CreationError reports a charge the provider rejected (malformed payload,
// auth failure, ...). It is shown to the user; no state changes.
type CreationError struct {
	Reason string
}

func NewCreationError(reason string) error {
	return &CreationError{Reason: reason}
}

func (e CreationError) Error() string {
	return fmt.Sprintf("payment creation failed: %s", e.Reason)
}

func IsCreationError(err error) bool {
	_, ok := errors.Cause(err).(*CreationError)
	return ok
}
