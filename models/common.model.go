package models

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ErrorResponse creates a standardized error response
func ErrorResponse(err string, message string) ErrorBody {
	return ErrorBody{
		Error:   err,
		Message: message,
	}
}

// MessagePage is one page of room history, newest first.
type MessagePage struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"hasMore"`
}
