package runtime

import "strconv"

// SCORM runtime error codes. Content ships its own handling for these
// exact numbers; they must never be renumbered.
const (
	NoError               = 0
	GeneralException      = 101
	InvalidArgument       = 201
	NotInitialized        = 301
	NotArray              = 401
	EmptyElement          = 402
	ElementNotInitialized = 403
	ElementNotFound       = 404
	ReadOnlyElement       = 405
	WriteOnlyElement      = 406
	KeywordElement        = 407
)

var errorStrings = map[int]string{
	NoError:               "No error",
	GeneralException:      "General exception",
	InvalidArgument:       "Invalid argument error",
	NotInitialized:        "Not initialized",
	NotArray:              "Element is not an array - cannot have count",
	EmptyElement:          "Element is empty - cannot have value",
	ElementNotInitialized: "Element is not initialized",
	ElementNotFound:       "Element not found",
	ReadOnlyElement:       "Element is read only",
	WriteOnlyElement:      "Element is write only",
	KeywordElement:        "Element is a keyword - cannot be changed",
}

// ErrorString returns the fixed text for a code, or "" for unknown codes.
func ErrorString(code int) string {
	return errorStrings[code]
}

// Diagnostic returns vendor diagnostic text for a code. Same table as
// ErrorString, prefixed with the numeric code.
func Diagnostic(code int) string {
	s, ok := errorStrings[code]
	if !ok {
		return ""
	}
	return strconv.Itoa(code) + ": " + s
}
