package otp

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-router"

	auth "github.com/goliatone/go-market-auth"
	"github.com/goliatone/go-market-auth/middleware/trace"
)

// DefaultTimeout bounds a single provider call made by the controller
const DefaultTimeout = 10 * time.Second

// VerificationRecorder persists that a phone passed verification
type VerificationRecorder interface {
	MarkPhoneVerified(ctx context.Context, phone string) error
}

// SessionIssuer mints a bearer token for a verified phone
type SessionIssuer interface {
	IssueSession(ctx context.Context, phone string) (string, error)
}

// VerifyResponse is the body returned by POST /otp/verify
type VerifyResponse struct {
	Verified bool   `json:"verified"`
	Token    string `json:"token,omitempty"`
}

// SendPayload is the body of POST /otp/send
type SendPayload struct {
	Phone string `json:"phone" form:"phone"`
}

// Validate will validate the payload
func (p SendPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Phone, validation.Required, validation.Length(6, 24)),
	)
}

// VerifyPayload is the body of POST /otp/verify
type VerifyPayload struct {
	Phone string `json:"phone" form:"phone"`
	Code  string `json:"code" form:"code"`
}

// Validate will validate the payload
func (p VerifyPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Phone, validation.Required, validation.Length(6, 24)),
		validation.Field(&p.Code, validation.Required, validation.Length(4, 10), is.Digit),
	)
}

type ControllerRoutes struct {
	Send   string
	Verify string
}

// Controller exposes the bridge over HTTP. It normalizes the phone once per
// request and imposes its own timeout on every provider call.
type Controller struct {
	Routes   *ControllerRoutes
	bridge   *Bridge
	recorder VerificationRecorder
	sessions SessionIssuer
	timeout  time.Duration
}

// NewController returns a controller. recorder may be nil.
func NewController(bridge *Bridge, recorder VerificationRecorder, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Controller{
		Routes: &ControllerRoutes{
			Send:   "/otp/send",
			Verify: "/otp/verify",
		},
		bridge:   bridge,
		recorder: recorder,
		timeout:  timeout,
	}
}

// WithSessions makes Verify return a token once the phone is verified
func (ctl *Controller) WithSessions(sessions SessionIssuer) *Controller {
	ctl.sessions = sessions
	return ctl
}

// RegisterRoutes mounts the controller routes on app
func RegisterRoutes[T any](app router.Router[T], ctl *Controller) {
	app.Post(ctl.Routes.Send, ctl.Send)
	app.Post(ctl.Routes.Verify, ctl.Verify)
}

// Send starts a challenge
func (ctl *Controller) Send(c router.Context) error {
	payload := new(SendPayload)
	if err := c.Bind(payload); err != nil {
		return auth.WrapAs(err, auth.ErrMalformed)
	}

	if err := payload.Validate(); err != nil {
		return invalidPayload(err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), ctl.timeout)
	defer cancel()

	challenge, err := ctl.bridge.StartChallenge(ctx, ctl.bridge.Normalize(payload.Phone))
	if err != nil {
		return err
	}

	return c.JSON(router.StatusAccepted, challenge)
}

// Verify checks a code and records the verified phone
func (ctl *Controller) Verify(c router.Context) error {
	payload := new(VerifyPayload)
	if err := c.Bind(payload); err != nil {
		return auth.WrapAs(err, auth.ErrMalformed)
	}

	if err := payload.Validate(); err != nil {
		return invalidPayload(err)
	}

	phone := ctl.bridge.Normalize(payload.Phone)

	ctx, cancel := context.WithTimeout(c.Context(), ctl.timeout)
	defer cancel()

	verified, err := ctl.bridge.CheckChallenge(ctx, phone, payload.Code)
	if err != nil {
		return err
	}

	res := VerifyResponse{Verified: verified}
	if !verified {
		return c.JSON(router.StatusOK, res)
	}

	logger := trace.Logger(c.Context())

	if ctl.recorder != nil {
		if err := ctl.recorder.MarkPhoneVerified(c.Context(), phone); err != nil {
			logger.Error("failed to record phone verification", "error", err)
			return err
		}
	}

	if ctl.sessions != nil {
		token, err := ctl.sessions.IssueSession(c.Context(), phone)
		if err != nil {
			logger.Error("failed to issue session", "error", err)
			return err
		}
		res.Token = token
	}

	return c.JSON(router.StatusOK, res)
}

func invalidPayload(err error) error {
	fields := map[string]any{}
	if errs, ok := err.(validation.Errors); ok {
		for field, fieldErr := range errs {
			fields[field] = fieldErr.Error()
		}
	}
	return auth.WrapAs(err, auth.ErrMalformed).WithMetadata(map[string]any{
		"fields": fields,
	})
}
