package echoapi

import (
	"github.com/edupro/schoolportal/core/account"
	"github.com/edupro/schoolportal/core/session"
)

type (
	NavResponse struct {
		Screen         string `json:"screen"`
		SchoolName     string `json:"school_name,omitempty"`
		Email          string `json:"email,omitempty"`
		PendingPayment bool   `json:"pending_payment,omitempty"`
	}

	TransitionRequest struct {
		Target string `json:"target"`
	}

	SignupResponse struct {
		IntentID    string `json:"intent_id"`
		ApprovalURL string `json:"approval_url"`
	}

	PaymentOutcomeResponse struct {
		Status  string           `json:"status"`
		Screen  string           `json:"screen"`
		Account *account.Account `json:"account,omitempty"`
	}

	SignInResponse struct {
		SchoolName string `json:"school_name"`
		Screen     string `json:"screen"`
	}
)

func newNavResponse(sess *session.Session) NavResponse {
	res := NavResponse{
		Screen:         string(sess.CurrentScreen()),
		PendingPayment: sess.Pending != nil,
	}
	if sess.Auth != nil {
		res.SchoolName = sess.Auth.SchoolName
		res.Email = sess.Auth.Email
	}
	return res
}
