// Package response holds the JSON envelopes returned by the API.
package response

type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	// Source tells snapshot consumers whether data came from the published
	// artifact or from a live build.
	Source string `json:"source,omitempty"`
	Data   T      `json:"data,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
