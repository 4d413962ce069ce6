package exchange

import "fmt"

// ErrorType mirrors the Anthropic-style error taxonomy used on the
// ingress-dialect error body (see spec §7 mapping table).
type ErrorType string

const (
	ErrorInvalidRequest  ErrorType = "invalid_request_error"
	ErrorAuthentication  ErrorType = "authentication_error"
	ErrorPermission      ErrorType = "permission_error"
	ErrorNotFound        ErrorType = "not_found_error"
	ErrorRateLimit       ErrorType = "rate_limit_error"
	ErrorAPI             ErrorType = "api_error"
	ErrorOverloaded      ErrorType = "overloaded_error"
	ErrorModelNotFound   ErrorType = "model_not_found"
	ErrorTransformFailed ErrorType = "transformer_failed"
)

// Error is a structured proxy-level error carrying an HTTP status and an
// ingress-dialect error type, so handlers can render it as
// {"error": {"type", "message"}} without re-deriving the mapping.
type Error struct {
	Status  int
	Type    ErrorType
	Message string
	// RoutingKey and Transformer annotate transformer_failed errors per
	// spec §7's propagation policy.
	RoutingKey  string
	Transformer string
}

func (e *Error) Error() string {
	if e.Transformer != "" {
		return fmt.Sprintf("%s: %s (routing_key=%s transformer=%s)", e.Type, e.Message, e.RoutingKey, e.Transformer)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Body renders the Anthropic-style error envelope.
func (e *Error) Body() map[string]any {
	return map[string]any{
		"error": map[string]any{
			"type":    string(e.Type),
			"message": e.Message,
		},
	}
}

// NewModelNotFoundError builds the 4xx returned when routing cannot
// resolve an alias.
func NewModelNotFoundError(alias string) *Error {
	return &Error{
		Status:  400,
		Type:    ErrorModelNotFound,
		Message: fmt.Sprintf("no provider binding for model alias %q", alias),
	}
}

// NewTransformerFailedError builds the 5xx returned when a transformer
// returns an error at request time.
func NewTransformerFailedError(routingKey, transformerName string, cause error) *Error {
	return &Error{
		Status:      500,
		Type:        ErrorTransformFailed,
		Message:     cause.Error(),
		RoutingKey:  routingKey,
		Transformer: transformerName,
	}
}

// MapUpstreamStatus maps an upstream HTTP status to the ingress-dialect
// error type per spec §7.
func MapUpstreamStatus(status int) ErrorType {
	switch status {
	case 400:
		return ErrorInvalidRequest
	case 401:
		return ErrorAuthentication
	case 403:
		return ErrorPermission
	case 404:
		return ErrorNotFound
	case 429:
		return ErrorRateLimit
	default:
		if status >= 500 {
			return ErrorAPI
		}
		return ErrorAPI
	}
}
