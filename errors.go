package goserde

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention).
//
// Codes fall into three disjoint kinds, distinguishable via IsSchemaError,
// IsFormatError, and IsResolutionError:
//
//   - schema definition errors: raised once while parsing schema text, never
//     during data codec operations;
//   - format errors: the bytes or tokens are not well-formed for any schema;
//     stream position is undefined afterwards and callers must not keep reading;
//   - resolution/type errors: the data is well-formed but incompatible with the
//     declared reader schema. Earlier-read data stays committed to the
//     partially built result, which callers should discard wholesale.
const (
	// Schema definition errors.
	CodeSchemaParse    = "schema_parse"
	CodeDuplicateName  = "duplicate_name"
	CodeUnknownName    = "unknown_name"
	CodeUnionAmbiguous = "union_ambiguous"
	CodeBadDefault     = "bad_default"

	// Format errors.
	CodeParseError    = "parse_error"
	CodeTruncated     = "truncated"
	CodeInvalidVarint = "invalid_varint"
	CodeInvalidUTF8   = "invalid_utf8"

	// Resolution/type errors.
	CodeInvalidType     = "invalid_type"
	CodeRequired        = "required"
	CodeInvalidEnum     = "invalid_enum"
	CodeIncompatible    = "incompatible_schema"
	CodeIndexOutOfRange = "index_out_of_range"
	CodeUnknownBranch   = "unknown_branch"
	CodeAmbiguousMatch  = "ambiguous_match"
	CodeSizeMismatch    = "size_mismatch"
)

// Issue represents a single decode, encode, or schema-construction error entry.
type Issue struct {
	Path    string // JSON Pointer into the value being processed (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, expected forms, etc.
	Cause   error  // Optional: underlying error.
	Offset  int64  // Byte offset in the input source (-1 when unknown).
	// Params carries structured parameters (e.g., {"want":"long", "got":"string"})
	// for observability.
	Params map[string]any
}

// Issues is a collection of errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

var schemaCodes = map[string]bool{
	CodeSchemaParse:    true,
	CodeDuplicateName:  true,
	CodeUnknownName:    true,
	CodeUnionAmbiguous: true,
	CodeBadDefault:     true,
}

var formatCodes = map[string]bool{
	CodeParseError:    true,
	CodeTruncated:     true,
	CodeInvalidVarint: true,
	CodeInvalidUTF8:   true,
}

// IsSchemaError reports whether err carries a schema-definition issue.
func IsSchemaError(err error) bool { return hasKind(err, schemaCodes) }

// IsFormatError reports whether err carries a malformed-input issue. After a
// format error the stream position is undefined; callers must not keep reading.
func IsFormatError(err error) bool { return hasKind(err, formatCodes) }

// IsResolutionError reports whether err carries a schema/data incompatibility
// issue (well-formed input that the reader schema cannot accept).
func IsResolutionError(err error) bool {
	iss, ok := AsIssues(err)
	if !ok {
		return false
	}
	for _, it := range iss {
		if !schemaCodes[it.Code] && !formatCodes[it.Code] {
			return true
		}
	}
	return false
}

func hasKind(err error, codes map[string]bool) bool {
	iss, ok := AsIssues(err)
	if !ok {
		return false
	}
	for _, it := range iss {
		if codes[it.Code] {
			return true
		}
	}
	return false
}

// issueAt builds a single-issue error at the given path.
func issueAt(path, code, msg string) Issues {
	return Issues{{Path: path, Code: code, Message: msg, Offset: -1}}
}

func issuef(path, code, format string, args ...any) Issues {
	return Issues{{Path: path, Code: code, Message: fmt.Sprintf(format, args...), Offset: -1}}
}
