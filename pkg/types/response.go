package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope keeps the human readable message in the top level "error"
// field so clients can surface it directly.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
