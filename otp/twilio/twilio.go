// Package twilio implements otp.Provider on top of Twilio Verify v2.
package twilio

import (
	"context"
	"errors"
	"net/http"
	"time"

	twilioapi "github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	verify "github.com/twilio/twilio-go/rest/verify/v2"

	"github.com/goliatone/go-market-auth/otp"
)

// StatusApproved is the Verify status of a successful check
const StatusApproved = "approved"

// verifyAPI is the subset of the Twilio Verify service we call
type verifyAPI interface {
	CreateVerification(serviceSid string, params *verify.CreateVerificationParams) (*verify.VerifyV2Verification, error)
	CreateVerificationCheck(serviceSid string, params *verify.CreateVerificationCheckParams) (*verify.VerifyV2VerificationCheck, error)
}

// Provider calls Twilio Verify
type Provider struct {
	api        verifyAPI
	serviceSID string
}

var _ otp.Provider = (*Provider)(nil)

// New returns a Provider authenticated with the account credentials.
// A positive timeout bounds every HTTP call made by the Twilio client.
func New(accountSID, authToken, serviceSID string, timeout time.Duration) *Provider {
	rest := twilioapi.NewRestClientWithParams(twilioapi.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	if timeout > 0 {
		rest.SetTimeout(timeout)
	}
	return &Provider{
		api:        rest.VerifyV2,
		serviceSID: serviceSID,
	}
}

// StartVerification implements otp.Provider.
func (p *Provider) StartVerification(ctx context.Context, to, channel string) (otp.Challenge, error) {
	params := &verify.CreateVerificationParams{}
	params.SetTo(to)
	params.SetChannel(channel)

	resp, err := call(ctx, func() (*verify.VerifyV2Verification, error) {
		return p.api.CreateVerification(p.serviceSID, params)
	})
	if err != nil {
		return otp.Challenge{}, err
	}

	return otp.Challenge{
		Ref:     deref(resp.Sid),
		To:      to,
		Channel: channel,
		Status:  deref(resp.Status),
	}, nil
}

// CheckVerification implements otp.Provider. A verification that no longer
// exists (expired or too many attempts) is reported as unverified.
func (p *Provider) CheckVerification(ctx context.Context, to, code string) (otp.Check, error) {
	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(to)
	params.SetCode(code)

	resp, err := call(ctx, func() (*verify.VerifyV2VerificationCheck, error) {
		return p.api.CreateVerificationCheck(p.serviceSID, params)
	})
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) && restErr.Status == http.StatusNotFound {
			return otp.Check{Status: "not_found"}, nil
		}
		return otp.Check{}, err
	}

	status := deref(resp.Status)
	return otp.Check{
		Ref:      deref(resp.Sid),
		Status:   status,
		Verified: status == StatusApproved,
	}, nil
}

// call runs fn and returns early with ctx.Err() when ctx is done first.
// The Twilio client has no context support.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}

	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{value: v, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-done:
		return r.value, r.err
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
