package errors

import "net/http"

// Response is the success envelope shared by every endpoint.
type Response struct {
	Status  int    `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

func Respond(w http.ResponseWriter, r *http.Request, status int, data any, message string) error {
	if data == nil {
		data = struct{}{}
	}
	WriteJSON(w, GetRequestID(r.Context()), status, Response{
		Status:  status,
		Data:    data,
		Message: message,
	})
	return nil
}
