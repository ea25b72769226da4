package status

type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrBadRequest    = NewError(BadRequest, "bad request")
	ErrBadStatusLine = NewError(BadRequest, "malformed status line")
	ErrTooLarge      = NewError(BadRequest, "request is too large")
	ErrNotFound      = NewError(NotFound, "not found")
	ErrServerError   = NewError(ServerError, "internal server error")

	ErrConnectionClosed = NewError(ServerError, "connection is already closed")
	ErrResponseStarted  = NewError(ServerError, "response has already been started")
	ErrNotStarted       = NewError(ServerError, "response has not been started yet")
	ErrChildActive      = NewError(ServerError, "a child process is already attached")
	ErrShutdown         = NewError(ServerError, "graceful shutdown")
)
