package status

type Code uint16

const (
	OK           Code = 200
	Redirect     Code = 302
	BadRequest   Code = 400
	Authenticate Code = 401
	NotFound     Code = 404
	ServerError  Code = 500
)

// Text returns the reason phrase of a code. Unknown codes yield an empty
// phrase rather than failing, so arbitrary codes can still be sent.
func Text(code Code) string {
	switch code {
	case OK:
		return "Ok"
	case Redirect:
		return "Redirect"
	case BadRequest:
		return "Bad Request"
	case Authenticate:
		return "Authenticate"
	case NotFound:
		return "Not Found"
	case ServerError:
		return "Server Error"
	default:
		return ""
	}
}
