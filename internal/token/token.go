// Package token is the JSON token layer behind the textual codec: a streaming
// tokenizer plus the replay and subtree-capture pieces the schema-directed
// decoder needs for field reordering and skip.
package token

import (
	"bytes"
	"io"
	"strconv"

	gojson "github.com/goccy/go-json"
)

// Kind enumerates JSON token kinds.
type Kind int

const (
	BeginObject Kind = iota
	EndObject
	BeginArray
	EndArray
	Key
	String
	Number
	Bool
	Null
)

// Token is one streaming token with its approximate input offset (-1 when the
// backing tokenizer cannot report positions).
type Token struct {
	Kind   Kind
	Str    string // key and string tokens
	Num    string // number tokens, kept as text
	Bool   bool
	Offset int64
}

// Stream is the minimal token source the JSON codec consumes.
type Stream interface {
	Next() (Token, error)
	Location() int64 // byte offset; -1 if unknown
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

type source struct {
	dec        *gojson.Decoder
	stack      []frame
	lastOffset int64
}

// NewStream wraps an io.Reader into a JSON token Stream.
func NewStream(r io.Reader) Stream {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return &source{dec: dec, lastOffset: -1}
}

// NewBytes wraps a byte slice into a JSON token Stream.
func NewBytes(b []byte) Stream { return NewStream(bytes.NewReader(b)) }

func (s *source) Next() (Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		if err == io.EOF {
			return Token{}, io.EOF
		}
		return Token{}, err
	}
	s.lastOffset = s.dec.InputOffset()

	switch v := tok.(type) {
	case gojson.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			return Token{Kind: BeginObject, Offset: s.lastOffset}, nil
		case '}':
			s.pop()
			s.valueDone()
			return Token{Kind: EndObject, Offset: s.lastOffset}, nil
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			return Token{Kind: BeginArray, Offset: s.lastOffset}, nil
		case ']':
			s.pop()
			s.valueDone()
			return Token{Kind: EndArray, Offset: s.lastOffset}, nil
		}
	case string:
		if n := len(s.stack); n > 0 {
			top := &s.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				top.expectingKey = false
				return Token{Kind: Key, Str: v, Offset: s.lastOffset}, nil
			}
		}
		s.valueDone()
		return Token{Kind: String, Str: v, Offset: s.lastOffset}, nil
	case bool:
		s.valueDone()
		return Token{Kind: Bool, Bool: v, Offset: s.lastOffset}, nil
	case gojson.Number:
		s.valueDone()
		return Token{Kind: Number, Num: string(v), Offset: s.lastOffset}, nil
	case float64:
		s.valueDone()
		return Token{Kind: Number, Num: strconv.FormatFloat(v, 'g', -1, 64), Offset: s.lastOffset}, nil
	case nil:
		s.valueDone()
		return Token{Kind: Null, Offset: s.lastOffset}, nil
	}
	s.valueDone()
	return Token{Kind: Null, Offset: s.lastOffset}, nil
}

func (s *source) Location() int64 { return s.lastOffset }

func (s *source) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
}

// valueDone flips the enclosing object frame back to key position after a
// value completes.
func (s *source) valueDone() {
	if n := len(s.stack); n > 0 {
		top := &s.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
		}
	}
}

// Replay serves a captured token slice as a Stream, then io.EOF.
type Replay struct {
	toks []Token
	i    int
}

// NewReplay wraps captured tokens as a Stream.
func NewReplay(toks []Token) *Replay { return &Replay{toks: toks} }

func (r *Replay) Next() (Token, error) {
	if r.i >= len(r.toks) {
		return Token{}, io.EOF
	}
	t := r.toks[r.i]
	r.i++
	return t, nil
}

func (r *Replay) Location() int64 {
	if r.i > 0 && r.i <= len(r.toks) {
		return r.toks[r.i-1].Offset
	}
	return -1
}

// Capture collects the complete value subtree starting at first: the single
// token for primitives, or everything through the matching end token for
// containers. The captured slice can be replayed later in any order relative
// to sibling captures, which is what record-field reordering rides on.
func Capture(first Token, s Stream) ([]Token, error) {
	toks := []Token{first}
	depth := 0
	switch first.Kind {
	case BeginObject, BeginArray:
		depth = 1
	default:
		return toks, nil
	}
	for depth > 0 {
		tok, err := s.Next()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		switch tok.Kind {
		case BeginObject, BeginArray:
			depth++
		case EndObject, EndArray:
			depth--
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

// Discard consumes the complete value subtree starting at first without
// retaining it.
func Discard(first Token, s Stream) error {
	depth := 0
	switch first.Kind {
	case BeginObject, BeginArray:
		depth = 1
	default:
		return nil
	}
	for depth > 0 {
		tok, err := s.Next()
		if err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		switch tok.Kind {
		case BeginObject, BeginArray:
			depth++
		case EndObject, EndArray:
			depth--
		}
	}
	return nil
}
