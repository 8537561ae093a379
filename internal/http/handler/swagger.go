package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"wardrobe/docs"
)

// SwaggerDocs serves the API docs with host and scheme taken from the request.
// fallbackHost is used when the request carries no Host header.
func SwaggerDocs(fallbackHost string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}
		docs.SwaggerInfo.Host = docsHost(c.Get("Host"), fallbackHost)
		docs.SwaggerInfo.Schemes = []string{scheme}
		return swagger.HandlerDefault(c)
	}
}

func docsHost(requestHost, fallback string) string {
	if h := strings.TrimSpace(requestHost); h != "" {
		return h
	}
	return fallback
}
