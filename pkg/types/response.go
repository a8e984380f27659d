package types

// SuccessEnvelope wraps every successful API payload so clients always
// unwrap the same shape.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error body. Code matches the typed error
// codes; Details is populated only for codes that allow it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under a stable key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
