package middlewares

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshakeToken_SourceOrder(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(HandshakeToken(c))
	})

	tests := []struct {
		name   string
		target string
		cookie string
		header string
		want   string
	}{
		{name: "query wins", target: "/?auth=q", cookie: "c", header: "Bearer h", want: "q"},
		{name: "cookie before header", target: "/", cookie: "c", header: "Bearer h", want: "c"},
		{name: "bearer header", target: "/", header: "Bearer h", want: "h"},
		{name: "wrong scheme", target: "/", header: "Basic h", want: ""},
		{name: "nothing", target: "/", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.cookie != "" {
				req.Header.Set("Cookie", CookieToken+"="+tt.cookie)
			}
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.want, string(body))
		})
	}
}
