package client

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
)

// DefaultErrorMessage is used when neither the server nor the transport
// supplied a message
const DefaultErrorMessage = "request failed"

const maxErrorBody = 64 << 10

// Error is the single shape every failed call collapses to. Err carries the
// same failure as a rich error whose source is the transport error, if any.
type Error struct {
	Status   int
	Message  string
	TextCode string
	Err      *errors.Error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	if e.Err == nil {
		return nil
	}
	return e.Err
}

// Unauthorized reports whether the server answered 401
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

type serverError struct {
	Message  string `json:"message"`
	TextCode string `json:"text_code"`
}

// NormalizeError builds an Error from a failed response or a transport
// error. The server's message wins over the transport's, which wins over
// DefaultErrorMessage. The response body is consumed but not closed.
func NormalizeError(resp *http.Response, transportErr error) *Error {
	out := &Error{}

	if resp != nil {
		out.Status = resp.StatusCode
		if resp.Body != nil {
			var body serverError
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			if json.Unmarshal(raw, &body) == nil {
				out.Message = strings.TrimSpace(body.Message)
				out.TextCode = body.TextCode
			}
		}
	}

	if out.Message == "" && transportErr != nil {
		out.Message = transportErr.Error()
	}
	if out.Message == "" {
		out.Message = DefaultErrorMessage
	}

	out.Err = richError(out, transportErr)
	return out
}

func richError(e *Error, transportErr error) *errors.Error {
	category := errors.CategoryInternal
	switch {
	case e.Status != 0:
		category = errors.HTTPStatusToCategory(e.Status)
	case transportErr != nil:
		category = errors.CategoryExternal
	}

	rich := errors.New(e.Message, category)
	if e.Status != 0 {
		rich = rich.WithCode(e.Status)
	}

	textCode := e.TextCode
	if textCode == "" && e.Status != 0 {
		textCode = errors.HTTPStatusToTextCode(e.Status)
	}
	if textCode != "" {
		rich = rich.WithTextCode(textCode)
	}

	rich.Source = transportErr
	return rich
}
