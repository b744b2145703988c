package core

import "time"

// OCPI application-level status codes. The HTTP status is almost always 200;
// success or failure travels in the envelope.
const (
	StatusSuccess         = 1000
	StatusClientError     = 2000
	StatusInvalidParams   = 2001
	StatusUnknownLocation = 2003
	StatusServerError     = 3000
)

// Response is the OCPI response envelope wrapped around every JSON body.
type Response struct {
	Data          any    `json:"data"`
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message,omitempty"`
	Timestamp     string `json:"timestamp"`
}

func NewResponse(data any, statusCode int, message string) Response {
	return Response{
		Data:          data,
		StatusCode:    statusCode,
		StatusMessage: message,
		Timestamp:     Timestamp(),
	}
}

func OK(data any) Response {
	return NewResponse(data, StatusSuccess, "")
}

// Timestamp renders the envelope timestamp: RFC3339, second precision, Zulu.
func Timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}
