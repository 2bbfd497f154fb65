package middleware

import (
	"bytes"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/realtyhub/marketplace-api/internal/api/validation"
	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

// validate reads the body once, checks it against schema and stores the
// parsed value for the handler. The body is restored so handlers may still
// read it.
func (p *Pipeline) validate(c echo.Context, schema validation.Schema) error {
	req := c.Request()

	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		_ = req.Body.Close()
		body = b
		req.Body = io.NopCloser(bytes.NewReader(b))
	}

	res := p.deps.Validator.ValidateInput(schema, body)
	if !res.Success {
		return domain.NewValidationError(res.Errors...)
	}

	c.Set(ctxPayload, res.Data)
	return nil
}
