package goserde

import (
	"io"
	"math"
	"strconv"

	"github.com/reoring/goserde/internal/token"
)

// JSONDecoder reads the textual value format. It consumes a JSON token stream
// but delivers record fields in whatever order the caller asks for them: on
// entering an object it buffers the object's immediate key→value-span mapping
// in one pass, then serves each field from its captured span. Buffering is per
// object, so memory tracks nesting depth × fan-out, never document size.
type JSONDecoder struct {
	base token.Stream
	// replays serves captured spans; the top of the stack is the active input.
	replays []*token.Replay
	peeked  *token.Token
	// records carries one key→span frame per open record.
	records []map[string][]token.Token
}

// NewJSONDecoder returns a decoder over a JSON text stream.
func NewJSONDecoder(r io.Reader) *JSONDecoder {
	return &JSONDecoder{base: token.NewStream(r)}
}

// NewJSONDecoderBytes returns a decoder over in-memory JSON text.
func NewJSONDecoderBytes(b []byte) *JSONDecoder {
	return &JSONDecoder{base: token.NewBytes(b)}
}

// rawNext pulls the next token from the active input, popping exhausted
// replays. io.EOF escapes untranslated so capture helpers can see it.
func (d *JSONDecoder) rawNext() (token.Token, error) {
	if d.peeked != nil {
		t := *d.peeked
		d.peeked = nil
		return t, nil
	}
	for len(d.replays) > 0 {
		t, err := d.replays[len(d.replays)-1].Next()
		if err == io.EOF {
			d.replays = d.replays[:len(d.replays)-1]
			continue
		}
		return t, err
	}
	return d.base.Next()
}

// next is rawNext with errors mapped into the format-error kind.
func (d *JSONDecoder) next() (token.Token, error) {
	t, err := d.rawNext()
	if err != nil {
		return token.Token{}, d.formatErr(err)
	}
	return t, nil
}

func (d *JSONDecoder) peek() (token.Token, error) {
	if d.peeked == nil {
		t, err := d.rawNext()
		if err != nil {
			return token.Token{}, d.formatErr(err)
		}
		d.peeked = &t
	}
	return *d.peeked, nil
}

func (d *JSONDecoder) formatErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return Issues{{Path: "/", Code: CodeTruncated, Message: "input ends mid-value", Cause: err, Offset: d.base.Location()}}
	}
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	return Issues{{Path: "/", Code: CodeParseError, Message: "malformed JSON", Cause: err, Offset: d.base.Location()}}
}

func (d *JSONDecoder) typeErr(tok token.Token, want string) error {
	return Issues{{
		Path: "/", Code: CodeInvalidType,
		Message: "unexpected JSON value",
		Params:  map[string]any{"want": want},
		Offset:  tok.Offset,
	}}
}

// rawStream adapts the decoder's layered input for the token package helpers.
type rawStream struct{ d *JSONDecoder }

func (r rawStream) Next() (token.Token, error) { return r.d.rawNext() }
func (r rawStream) Location() int64            { return r.d.base.Location() }

func (d *JSONDecoder) capture(first token.Token) ([]token.Token, error) {
	span, err := token.Capture(first, rawStream{d})
	if err != nil {
		return nil, d.formatErr(err)
	}
	return span, nil
}

func (d *JSONDecoder) ReadNull() error {
	tok, err := d.next()
	if err != nil {
		return err
	}
	if tok.Kind != token.Null {
		return d.typeErr(tok, "null")
	}
	return nil
}

func (d *JSONDecoder) ReadBoolean() (bool, error) {
	tok, err := d.next()
	if err != nil {
		return false, err
	}
	if tok.Kind != token.Bool {
		return false, d.typeErr(tok, "boolean")
	}
	return tok.Bool, nil
}

func (d *JSONDecoder) ReadInt() (int32, error) {
	v, err := d.readInteger("int")
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, issuef("/", CodeInvalidType, "value %d overflows int", v)
	}
	return int32(v), nil
}

func (d *JSONDecoder) ReadLong() (int64, error) {
	return d.readInteger("long")
}

func (d *JSONDecoder) readInteger(want string) (int64, error) {
	tok, err := d.next()
	if err != nil {
		return 0, err
	}
	if tok.Kind != token.Number {
		return 0, d.typeErr(tok, want)
	}
	v, perr := strconv.ParseInt(tok.Num, 10, 64)
	if perr != nil {
		return 0, d.typeErr(tok, want)
	}
	return v, nil
}

func (d *JSONDecoder) ReadFloat() (float32, error) {
	v, err := d.readNumeric("float")
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}

func (d *JSONDecoder) ReadDouble() (float64, error) {
	return d.readNumeric("double")
}

// readNumeric accepts a JSON number literal (integer literals widen
// implicitly) or one of the case-sensitive special strings for non-finite
// values. Any other string is a type error, never a silent zero.
func (d *JSONDecoder) readNumeric(want string) (float64, error) {
	tok, err := d.next()
	if err != nil {
		return 0, err
	}
	switch tok.Kind {
	case token.Number:
		v, perr := strconv.ParseFloat(tok.Num, 64)
		if perr != nil {
			return 0, d.typeErr(tok, want)
		}
		return v, nil
	case token.String:
		switch tok.Str {
		case "NaN":
			return math.NaN(), nil
		case "Infinity", "INF":
			return math.Inf(1), nil
		case "-Infinity", "-INF":
			return math.Inf(-1), nil
		}
		return 0, d.typeErr(tok, want)
	default:
		return 0, d.typeErr(tok, want)
	}
}

func (d *JSONDecoder) ReadString() (string, error) {
	tok, err := d.next()
	if err != nil {
		return "", err
	}
	if tok.Kind != token.String {
		return "", d.typeErr(tok, "string")
	}
	return tok.Str, nil
}

func (d *JSONDecoder) ReadBytes() ([]byte, error) {
	tok, err := d.next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != token.String {
		return nil, d.typeErr(tok, "bytes")
	}
	b, ok := latin1Bytes(tok.Str)
	if !ok {
		return nil, d.typeErr(tok, "bytes (code points 0-255)")
	}
	return b, nil
}

func (d *JSONDecoder) ReadFixed(size int) ([]byte, error) {
	tok, err := d.next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != token.String {
		return nil, d.typeErr(tok, "fixed")
	}
	b, ok := latin1Bytes(tok.Str)
	if !ok {
		return nil, d.typeErr(tok, "fixed (code points 0-255)")
	}
	if len(b) != size {
		return nil, issuef("/", CodeSizeMismatch, "fixed value has %d bytes, schema declares %d", len(b), size)
	}
	return b, nil
}

func (d *JSONDecoder) ReadEnum(s *Schema) (int, error) {
	tok, err := d.next()
	if err != nil {
		return 0, err
	}
	if tok.Kind != token.String {
		return 0, d.typeErr(tok, "enum symbol")
	}
	i, ok := s.SymbolIndex(tok.Str)
	if !ok {
		return 0, issuef("/", CodeInvalidEnum, "unknown symbol %q for enum %s", tok.Str, s.FullName())
	}
	return i, nil
}

// ReadUnionIndex resolves the single-key-object union convention: a bare null
// selects the null branch; anything else must be {"<branch-key>": value}. The
// branch value's span is captured so the follow-up read consumes it in place.
func (d *JSONDecoder) ReadUnionIndex(s *Schema) (int, error) {
	tok, err := d.next()
	if err != nil {
		return 0, err
	}
	if tok.Kind == token.Null {
		i := s.NullBranch()
		if i < 0 {
			return 0, issueAt("/", CodeUnknownBranch, "null is not a branch of this union")
		}
		return i, nil
	}
	if tok.Kind != token.BeginObject {
		return 0, d.typeErr(tok, "union (null or single-key object)")
	}
	keyTok, err := d.next()
	if err != nil {
		return 0, err
	}
	if keyTok.Kind != token.Key {
		return 0, issueAt("/", CodeUnknownBranch, "union object must carry exactly one branch key")
	}
	idx, _, ok := s.Branch(keyTok.Str)
	if !ok {
		return 0, issuef("/", CodeUnknownBranch, "no union branch named %q", keyTok.Str)
	}
	first, err := d.next()
	if err != nil {
		return 0, err
	}
	span, err := d.capture(first)
	if err != nil {
		return 0, err
	}
	endTok, err := d.next()
	if err != nil {
		return 0, err
	}
	if endTok.Kind != token.EndObject {
		return 0, issueAt("/", CodeInvalidType, "union object must carry exactly one branch key")
	}
	d.replays = append(d.replays, token.NewReplay(span))
	return idx, nil
}

func (d *JSONDecoder) ReadArrayStart() (int64, error) {
	tok, err := d.next()
	if err != nil {
		return 0, err
	}
	if tok.Kind != token.BeginArray {
		return 0, d.typeErr(tok, "array")
	}
	return d.more(token.EndArray)
}

func (d *JSONDecoder) ReadArrayNext() (int64, error) { return d.more(token.EndArray) }

func (d *JSONDecoder) ReadMapStart() (int64, error) {
	tok, err := d.next()
	if err != nil {
		return 0, err
	}
	if tok.Kind != token.BeginObject {
		return 0, d.typeErr(tok, "map")
	}
	return d.more(token.EndObject)
}

func (d *JSONDecoder) ReadMapNext() (int64, error) { return d.more(token.EndObject) }

// more reports whether another item follows, consuming the container's end
// token when it does not. Text carries no counts, so items arrive one by one.
func (d *JSONDecoder) more(end token.Kind) (int64, error) {
	tok, err := d.peek()
	if err != nil {
		return 0, err
	}
	if tok.Kind == end {
		d.peeked = nil
		return 0, nil
	}
	return 1, nil
}

func (d *JSONDecoder) ReadMapKey() (string, error) {
	tok, err := d.next()
	if err != nil {
		return "", err
	}
	if tok.Kind != token.Key {
		return "", d.typeErr(tok, "map key")
	}
	return tok.Str, nil
}

// ReadRecordStart buffers the whole object one level deep: every key with its
// captured value span. Keys with no matching field are simply never replayed,
// which is how unknown input fields get ignored.
func (d *JSONDecoder) ReadRecordStart(s *Schema) error {
	tok, err := d.next()
	if err != nil {
		return err
	}
	if tok.Kind != token.BeginObject {
		return d.typeErr(tok, "record")
	}
	fields := map[string][]token.Token{}
	for {
		tok, err := d.next()
		if err != nil {
			return err
		}
		if tok.Kind == token.EndObject {
			break
		}
		if tok.Kind != token.Key {
			return d.typeErr(tok, "record key")
		}
		key := tok.Str
		first, err := d.next()
		if err != nil {
			return err
		}
		span, err := d.capture(first)
		if err != nil {
			return err
		}
		fields[key] = span
	}
	d.records = append(d.records, fields)
	return nil
}

func (d *JSONDecoder) ReadField(f *Field) (bool, error) {
	if len(d.records) == 0 {
		return false, issueAt("/", CodeParseError, "ReadField outside a record")
	}
	frame := d.records[len(d.records)-1]
	span, ok := frame[f.Name()]
	if !ok {
		return false, nil
	}
	d.replays = append(d.replays, token.NewReplay(span))
	return true, nil
}

func (d *JSONDecoder) ReadRecordEnd(s *Schema) error {
	if len(d.records) == 0 {
		return issueAt("/", CodeParseError, "ReadRecordEnd outside a record")
	}
	d.records = d.records[:len(d.records)-1]
	return nil
}

// Skip consumes one value of the expected shape without materializing it.
func (d *JSONDecoder) Skip(s *Schema) error {
	tok, err := d.next()
	if err != nil {
		return err
	}
	switch s.Type() {
	case TypeNull:
		if tok.Kind != token.Null {
			return d.typeErr(tok, "null")
		}
		return nil
	case TypeBoolean:
		if tok.Kind != token.Bool {
			return d.typeErr(tok, "boolean")
		}
		return nil
	case TypeInt, TypeLong:
		if tok.Kind != token.Number {
			return d.typeErr(tok, "integer")
		}
		return nil
	case TypeFloat, TypeDouble:
		if tok.Kind != token.Number && tok.Kind != token.String {
			return d.typeErr(tok, "number")
		}
		return nil
	case TypeString, TypeBytes, TypeFixed, TypeEnum:
		if tok.Kind != token.String {
			return d.typeErr(tok, "string")
		}
		return nil
	case TypeArray:
		if tok.Kind != token.BeginArray {
			return d.typeErr(tok, "array")
		}
	case TypeMap, TypeRecord:
		if tok.Kind != token.BeginObject {
			return d.typeErr(tok, "object")
		}
	case TypeUnion:
		if tok.Kind == token.Null {
			return nil
		}
		if tok.Kind != token.BeginObject {
			return d.typeErr(tok, "union")
		}
	default:
		return issuef("/", CodeInvalidType, "cannot skip %s", s.Type())
	}
	if err := token.Discard(tok, rawStream{d}); err != nil {
		return d.formatErr(err)
	}
	return nil
}

// latin1Bytes maps a string of code points 0–255 onto raw bytes; ok=false when
// any rune falls outside that range.
func latin1Bytes(s string) ([]byte, bool) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return nil, false
		}
		out = append(out, byte(r))
	}
	return out, true
}
