// Package validate checks request input and reports every violation per field.
package validate

// FieldError one violated field, rendered inside invalid_params
type FieldError struct {
	Domain string `json:"domain"`
	Reason string `json:"reason"`
}

// NewFieldError .
func NewFieldError(domain string, reason string) *FieldError {
	return &FieldError{domain, reason}
}

// Validator returns nil when the input is valid
type Validator interface {
	// Struct checks validate tags, fields are named after their json or query tag
	Struct(s interface{}) []*FieldError
	// Var checks a single value against tag, eg. "min=1"
	Var(name string, value interface{}, tag string) []*FieldError
}
