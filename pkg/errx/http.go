package errx

// HTTPErrorResponse is the JSON body returned for failed requests.
type HTTPErrorResponse struct {
	Error           string         `json:"error"`
	Code            string         `json:"code"`
	Type            string         `json:"type"`
	Status          int            `json:"status"`
	Details         map[string]any `json:"details,omitempty"`
	RequestID       string         `json:"request_id,omitempty"`
	UnderlyingError string         `json:"underlying_error,omitempty"`
}

// ToHTTPResponse converts an Error to an HTTPErrorResponse. The cause is
// only included when exposeCause is set.
func (e *Error) ToHTTPResponse(exposeCause bool) HTTPErrorResponse {
	resp := HTTPErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Type:   string(e.Type),
		Status: e.HTTPStatus,
	}
	if len(e.Details) > 0 {
		resp.Details = e.Details
	}
	if exposeCause && e.Err != nil {
		resp.UnderlyingError = e.Err.Error()
	}
	return resp
}

// FromError returns the *Error in err's chain, or a generic internal error
// wrapping err.
func FromError(err error) *Error {
	var e *Error
	if As(err, &e) {
		return e
	}
	internal := New("An unexpected error occurred", TypeInternal)
	internal.Code = "INTERNAL_ERROR"
	internal.Err = err
	return internal
}
