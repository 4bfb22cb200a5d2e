package dummypay

import (
	"context"
	"strconv"
	"sync"

	"github.com/edupro/schoolportal/core/payment"
)

// Service is a scripted payment gateway for dev and tests.
type Service struct {
	mu      sync.Mutex
	intents map[string]payment.Intent
	nextID  int

	// FailCreation makes CreateIntent fail with the given reason.
	FailCreation string
	// CancelOnConfirm makes ConfirmIntent report a cancelled payment.
	CancelOnConfirm bool

	// call counters for tests
	CreateCalls  int
	ConfirmCalls int
}

var _ payment.Gateway = (*Service)(nil)

func NewService() *Service {
	return &Service{
		intents: make(map[string]payment.Intent),
		nextID:  1,
	}
}

func (svc *Service) CreateIntent(ctx context.Context, charge payment.Charge) (payment.Intent, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.CreateCalls++
	if svc.FailCreation != "" {
		return payment.Intent{}, payment.NewCreationError(svc.FailCreation)
	}

	id := "PAY-" + strconv.Itoa(svc.nextID)
	svc.nextID++
	intent := payment.Intent{
		ID:          id,
		Total:       charge.Total,
		Currency:    charge.Currency,
		Status:      payment.StatusCreated,
		ApprovalURL: "https://payments.example.com/approve/" + id,
	}
	svc.intents[id] = intent
	return intent, nil
}

func (svc *Service) ConfirmIntent(ctx context.Context, intentID, payerID string) (payment.Intent, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.ConfirmCalls++
	intent, ok := svc.intents[intentID]
	if !ok {
		return payment.Intent{}, payment.NewCreationError("unknown payment " + intentID)
	}
	if svc.CancelOnConfirm {
		intent.Status = payment.StatusCancelled
	} else {
		intent.Status = payment.StatusApproved
	}
	intent.ApprovalURL = ""
	svc.intents[intentID] = intent
	return intent, nil
}
