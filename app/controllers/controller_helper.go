package controllers

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Urlsy/internal/pkg/config"
)

var (
	errInvalidRequest = errors.New("invalid_request")

	validate = validator.New()
)

// apiError writes the {"error": "<code>"} body every JSON endpoint uses.
func apiError(c *fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": code,
	})
}

// parseJSON decodes and validates the request body regardless of the content
// type. An empty body is accepted as {} when allowEmpty is set.
func parseJSON(c *fiber.Ctx, out interface{}, allowEmpty bool) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		if !allowEmpty {
			return errInvalidRequest
		}
	} else if err := c.App().Config().JSONDecoder(body, out); err != nil {
		return errInvalidRequest
	}

	if err := validate.Struct(out); err != nil {
		return errInvalidRequest
	}
	return nil
}

// appURL is the public base URL, falling back to the request origin.
func appURL(c *fiber.Ctx, cfg *config.Config) string {
	return cfg.App.URL(c.BaseURL())
}

// shortURLFunc renders the public URL of a short code.
func shortURLFunc(c *fiber.Ctx, cfg *config.Config) func(code string) string {
	base := appURL(c, cfg)
	return func(code string) string {
		return base + "/" + code
	}
}

// requestID returns the id assigned by the requestid middleware
func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}

// localPath accepts only same-origin absolute paths as redirect targets.
func localPath(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	return raw
}

func paramID(c *fiber.Ctx, name string) uint {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}
