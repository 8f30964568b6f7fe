package transport

import "encoding/json"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps every API response. Meta carries side information such as
// an intake rejection reason or whether a farmer is registered.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

func NewSuccess(data, meta interface{}) Envelope {
	return Envelope{Status: StatusSuccess, Data: data, Meta: meta}
}

// NewError builds a failure envelope; message is shown to API clients as is.
func NewError(code, message string, meta interface{}) Envelope {
	return Envelope{Status: StatusError, Code: code, Error: message, Meta: meta}
}

var fallbackBody = []byte(`{"status":"error","code":"INTERNAL","error":"Internal Server Error"}`)

// Marshal encodes e, falling back to a generic internal error body when the
// payload cannot be encoded.
func (e Envelope) Marshal() []byte {
	body, err := json.Marshal(e)
	if err != nil {
		return fallbackBody
	}
	return body
}
