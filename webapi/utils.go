package webapi

import (
	"errors"

	"github.com/amirasaad/fxconvert/pkg/engine"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`     // A URI reference that identifies the problem type
	Title    string `json:"title"`              // Short, human-readable summary
	Status   int    `json:"status"`             // HTTP status code
	Detail   string `json:"detail,omitempty"`   // Human-readable explanation
	Instance string `json:"instance,omitempty"` // URI reference that identifies the specific occurrence
	Kind     string `json:"kind,omitempty"`     // Conversion error kind, when applicable
	Errors   any    `json:"errors,omitempty"`   // Optional: additional error details
}

// SuccessResponseJSON writes data wrapped in a Response.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// ErrorResponseJSON returns a response following RFC 9457 Problem Details
func ErrorResponseJSON(
	c *fiber.Ctx,
	status int,
	title string,
	detail any,
) error {
	return writeProblem(c, ProblemDetails{Title: title, Status: status}, detail)
}

// ConversionErrorJSON renders an engine error with its kind and display message.
func ConversionErrorJSON(c *fiber.Ctx, title string, err error) error {
	pd := ProblemDetails{
		Title:  title,
		Status: ErrorToStatusCode(err),
		Kind:   string(engine.KindOf(err)),
	}
	return writeProblem(c, pd, engine.Message(err))
}

func writeProblem(c *fiber.Ctx, pd ProblemDetails, detail any) error {
	pd.Type = "about:blank"
	if detail != nil {
		if s, ok := detail.(string); ok {
			pd.Detail = s
		} else {
			pd.Errors = detail
		}
	}
	pd.Instance = c.OriginalURL()
	c.Set(fiber.HeaderContentType, "application/problem+json")

	return c.Status(pd.Status).JSON(pd)
}

// ErrorToStatusCode maps conversion errors to HTTP status codes.
func ErrorToStatusCode(err error) int {
	switch engine.KindOf(err) {
	case engine.KindInvalidAmount:
		return fiber.StatusBadRequest
	case engine.KindInvalidCurrencyCode, engine.KindRateNotFound:
		return fiber.StatusUnprocessableEntity
	case engine.KindNetwork, engine.KindAPI:
		return fiber.StatusBadGateway
	case engine.KindNoDataAvailable:
		return fiber.StatusServiceUnavailable
	}
	if errors.Is(err, engine.ErrClosed) {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// BindAndValidate parses the request body and validates it using go-playground/validator.
// Returns a pointer to the struct (populated), or writes an error response and returns nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		_ = ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		_ = ErrorResponseJSON(c, fiber.StatusBadRequest, "Validation failed", err.Error())
		return nil, err
	}
	return &input, nil
}
