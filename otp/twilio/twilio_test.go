package twilio

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioclient "github.com/twilio/twilio-go/client"
	verify "github.com/twilio/twilio-go/rest/verify/v2"
)

type fakeVerify struct {
	serviceSID  string
	to, channel string
	code        string

	verification *verify.VerifyV2Verification
	check        *verify.VerifyV2VerificationCheck
	err          error
	delay        time.Duration
}

func (f *fakeVerify) CreateVerification(serviceSid string, params *verify.CreateVerificationParams) (*verify.VerifyV2Verification, error) {
	time.Sleep(f.delay)
	f.serviceSID = serviceSid
	f.to = *params.To
	f.channel = *params.Channel
	return f.verification, f.err
}

func (f *fakeVerify) CreateVerificationCheck(serviceSid string, params *verify.CreateVerificationCheckParams) (*verify.VerifyV2VerificationCheck, error) {
	time.Sleep(f.delay)
	f.serviceSID = serviceSid
	f.to = *params.To
	f.code = *params.Code
	return f.check, f.err
}

func strPtr(s string) *string {
	return &s
}

func TestStartVerification(t *testing.T) {
	api := &fakeVerify{verification: &verify.VerifyV2Verification{
		Sid:    strPtr("VE123"),
		Status: strPtr("pending"),
	}}
	p := &Provider{api: api, serviceSID: "VA123"}

	challenge, err := p.StartVerification(context.Background(), "+919876543210", "sms")
	require.NoError(t, err)

	assert.Equal(t, "VA123", api.serviceSID)
	assert.Equal(t, "+919876543210", api.to)
	assert.Equal(t, "sms", api.channel)
	assert.Equal(t, "VE123", challenge.Ref)
	assert.Equal(t, "pending", challenge.Status)
	assert.Equal(t, "sms", challenge.Channel)
}

func TestCheckVerification(t *testing.T) {
	t.Run("approved", func(t *testing.T) {
		api := &fakeVerify{check: &verify.VerifyV2VerificationCheck{
			Sid:    strPtr("VE123"),
			Status: strPtr(StatusApproved),
		}}
		p := &Provider{api: api, serviceSID: "VA123"}

		check, err := p.CheckVerification(context.Background(), "+919876543210", "123456")
		require.NoError(t, err)
		assert.True(t, check.Verified)
		assert.Equal(t, "123456", api.code)
	})

	t.Run("pending is not verified", func(t *testing.T) {
		api := &fakeVerify{check: &verify.VerifyV2VerificationCheck{Status: strPtr("pending")}}
		p := &Provider{api: api, serviceSID: "VA123"}

		check, err := p.CheckVerification(context.Background(), "+919876543210", "000000")
		require.NoError(t, err)
		assert.False(t, check.Verified)
	})

	t.Run("missing verification is not verified", func(t *testing.T) {
		api := &fakeVerify{err: &twilioclient.TwilioRestError{Status: http.StatusNotFound, Code: 20404}}
		p := &Provider{api: api, serviceSID: "VA123"}

		check, err := p.CheckVerification(context.Background(), "+919876543210", "123456")
		require.NoError(t, err)
		assert.False(t, check.Verified)
		assert.Equal(t, "not_found", check.Status)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		cause := &twilioclient.TwilioRestError{Status: http.StatusInternalServerError}
		p := &Provider{api: &fakeVerify{err: cause}, serviceSID: "VA123"}

		_, err := p.CheckVerification(context.Background(), "+919876543210", "123456")
		assert.True(t, errors.Is(err, cause))
	})
}

func TestCallHonorsContext(t *testing.T) {
	api := &fakeVerify{delay: 200 * time.Millisecond, verification: &verify.VerifyV2Verification{}}
	p := &Provider{api: api, serviceSID: "VA123"}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.StartVerification(ctx, "+919876543210", "sms")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNew(t *testing.T) {
	p := New("AC123", "token", "VA123", time.Second)
	require.NotNil(t, p)
	assert.NotNil(t, p.api)
	assert.Equal(t, "VA123", p.serviceSID)
}
