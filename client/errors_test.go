package client_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-market-auth/client"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNormalizeError(t *testing.T) {
	cases := []struct {
		name     string
		resp     *http.Response
		err      error
		status   int
		message  string
		textCode string
		category goerrors.Category
		richCode string
	}{
		{
			name:     "server message wins",
			resp:     response(403, `{"message":"insufficient role","text_code":"FORBIDDEN"}`),
			err:      errors.New("ignored"),
			status:   403,
			message:  "insufficient role",
			textCode: "FORBIDDEN",
			category: goerrors.CategoryAuthz,
			richCode: "FORBIDDEN",
		},
		{
			name:    "transport message",
			err:      errors.New("dial tcp: connection refused"),
			message:  "dial tcp: connection refused",
			category: goerrors.CategoryExternal,
		},
		{
			name:     "server message wins over transport",
			resp:     response(401, `{"message":"token expired"}`),
			err:      errors.New("connection reset"),
			status:   401,
			message:  "token expired",
			category: goerrors.CategoryAuth,
			richCode: "UNAUTHORIZED",
		},
		{
			name:    "non json body",
			resp:     response(502, "<html>bad gateway</html>"),
			status:   502,
			message:  client.DefaultErrorMessage,
			category: goerrors.CategoryInternal,
			richCode: "BAD_GATEWAY",
		},
		{
			name:    "blank server message",
			resp:     response(500, `{"message":"  "}`),
			status:   500,
			message:  client.DefaultErrorMessage,
			category: goerrors.CategoryInternal,
			richCode: "INTERNAL_SERVER_ERROR",
		},
		{
			name:     "nothing at all",
			message:  client.DefaultErrorMessage,
			category: goerrors.CategoryInternal,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := client.NormalizeError(tc.resp, tc.err)
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, tc.message, got.Message)
			assert.Equal(t, tc.message, got.Error())
			assert.Equal(t, tc.textCode, got.TextCode)
			if tc.err != nil {
				assert.ErrorIs(t, got, tc.err)
			}

			var rich *goerrors.Error
			require.True(t, goerrors.As(got, &rich))
			assert.Equal(t, tc.message, rich.Message)
			assert.Equal(t, tc.category, rich.Category)
			assert.Equal(t, tc.status, rich.Code)
			assert.Equal(t, tc.richCode, rich.TextCode)
		})
	}
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/slow":
			time.Sleep(200 * time.Millisecond)
		case "/teapot":
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte(`{"message":"short and stout"}`))
		default:
			_, _ = w.Write([]byte(`{"name":"event"}`))
		}
	}))
	defer srv.Close()

	c := client.New(srv.URL+"/", client.NewMemoryStore(), client.WithTimeout(50*time.Millisecond))
	ctx := context.Background()

	t.Run("decodes success", func(t *testing.T) {
		var out struct {
			Name string `json:"name"`
		}
		require.NoError(t, c.JSON(ctx, http.MethodGet, "/events/1", nil, &out))
		assert.Equal(t, "event", out.Name)
	})

	t.Run("server error", func(t *testing.T) {
		err := c.JSON(ctx, http.MethodPost, "/teapot", map[string]string{"a": "b"}, nil)
		var cerr *client.Error
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, http.StatusTeapot, cerr.Status)
		assert.Equal(t, "short and stout", cerr.Message)
	})

	t.Run("timeout", func(t *testing.T) {
		err := c.JSON(ctx, http.MethodGet, "/slow", nil, nil)
		var cerr *client.Error
		require.ErrorAs(t, err, &cerr)
		assert.Zero(t, cerr.Status)
		assert.NotEmpty(t, cerr.Message)
		assert.NotEqual(t, client.DefaultErrorMessage, cerr.Message)
	})
}
