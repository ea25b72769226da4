package method

type Method uint8

const (
	Unknown Method = iota
	GET
	POST
	HEAD
)

// Parse recognizes the three supported methods. Everything else, including
// lowercase spellings, maps to Unknown.
func Parse(str string) Method {
	switch str {
	case "GET":
		return GET
	case "POST":
		return POST
	case "HEAD":
		return HEAD
	default:
		return Unknown
	}
}

func (m Method) String() string {
	switch m {
	case GET:
		return "GET"
	case POST:
		return "POST"
	case HEAD:
		return "HEAD"
	default:
		return "unknown method"
	}
}
