package types

// SuccessEnvelope wraps every successful payload under "data", so clients of
// the staff API and the public tracking page read one shape.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error body: a stable machine-readable code, a
// message safe to show staff, and optional details (validation errors key
// them by the offending json field).
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps APIError under "error".
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
