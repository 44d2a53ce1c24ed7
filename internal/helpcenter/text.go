package helpcenter

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// renderText coerces a loosely-typed JSON value to its textual form. All seven
// projected fields flow through this one function so that numeric identifiers,
// timestamps, and plain strings all normalize the same way. Numbers keep their
// decimal representation because response bodies are decoded with UseNumber.
func renderText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
