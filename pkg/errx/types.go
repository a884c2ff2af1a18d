package errx

// Type represents the category of error
type Type string

const (
	// TypeInternal represents failures inside this process
	TypeInternal Type = "INTERNAL"

	// TypeValidation represents malformed input
	TypeValidation Type = "VALIDATION"

	// TypeNotFound represents a missing resource
	TypeNotFound Type = "NOT_FOUND"

	// TypeConflict represents a duplicate or already-applied operation
	TypeConflict Type = "CONFLICT"

	// TypeBusiness represents a business rule rejection (nothing was mutated)
	TypeBusiness Type = "BUSINESS"

	// TypeExternal represents failures of queue, database or remote services
	TypeExternal Type = "EXTERNAL"
)

// String returns the string representation of the error type
func (t Type) String() string {
	return string(t)
}

func (t Type) httpStatus() int {
	switch t {
	case TypeValidation:
		return 400
	case TypeNotFound:
		return 404
	case TypeConflict:
		return 409
	case TypeBusiness:
		return 422
	case TypeExternal:
		return 502
	default:
		return 500
	}
}
