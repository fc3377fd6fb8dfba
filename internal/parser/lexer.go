package parser

import (
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLBrace    // {
	tokRBrace    // }
	tokSemi      // ;
	tokComma     // ,
	tokColon     // :
	tokSpecial   // :>
	tokRedefines // :>>
	tokPathSep   // ::
	tokStar      // *
	tokDoubleStar
	tokEquals  // = or :=
	tokLBrack  // [
	tokRBrack  // ]
	tokLParen  // (
	tokRParen  // )
	tokInvalid
)

type token struct {
	kind   tokenKind
	text   string
	line   int
	column int
}

type lexer struct {
	src    string
	offset int
	line   int
	column int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func (l *lexer) peekByte() byte {
	if l.offset >= len(l.src) {
		return 0
	}
	return l.src[l.offset]
}

func (l *lexer) advance(n int) {
	for i := 0; i < n && l.offset < len(l.src); i++ {
		if l.src[l.offset] == '\n' {
			l.line++
			l.column = 0
		} else {
			l.column++
		}
		l.offset++
	}
}

func (l *lexer) skipSpaceAndComments() {
	for l.offset < len(l.src) {
		c := l.src[l.offset]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance(1)
		case c == '/' && l.offset+1 < len(l.src) && l.src[l.offset+1] == '/':
			for l.offset < len(l.src) && l.src[l.offset] != '\n' {
				l.advance(1)
			}
		case c == '/' && l.offset+1 < len(l.src) && l.src[l.offset+1] == '*':
			l.advance(2)
			for l.offset+1 < len(l.src) && !(l.src[l.offset] == '*' && l.src[l.offset+1] == '/') {
				l.advance(1)
			}
			l.advance(2)
		default:
			return
		}
	}
}

func (l *lexer) next() token {
	l.skipSpaceAndComments()

	tok := token{line: l.line, column: l.column}
	if l.offset >= len(l.src) {
		tok.kind = tokEOF
		return tok
	}

	c := l.peekByte()
	switch c {
	case '{':
		tok.kind, tok.text = tokLBrace, "{"
		l.advance(1)
		return tok
	case '}':
		tok.kind, tok.text = tokRBrace, "}"
		l.advance(1)
		return tok
	case ';':
		tok.kind, tok.text = tokSemi, ";"
		l.advance(1)
		return tok
	case ',':
		tok.kind, tok.text = tokComma, ","
		l.advance(1)
		return tok
	case '[':
		tok.kind, tok.text = tokLBrack, "["
		l.advance(1)
		return tok
	case ']':
		tok.kind, tok.text = tokRBrack, "]"
		l.advance(1)
		return tok
	case '(':
		tok.kind, tok.text = tokLParen, "("
		l.advance(1)
		return tok
	case ')':
		tok.kind, tok.text = tokRParen, ")"
		l.advance(1)
		return tok
	case '=':
		tok.kind, tok.text = tokEquals, "="
		l.advance(1)
		return tok
	case '*':
		if l.offset+1 < len(l.src) && l.src[l.offset+1] == '*' {
			tok.kind, tok.text = tokDoubleStar, "**"
			l.advance(2)
			return tok
		}
		tok.kind, tok.text = tokStar, "*"
		l.advance(1)
		return tok
	case ':':
		rest := l.src[l.offset:]
		switch {
		case len(rest) >= 3 && rest[:3] == ":>>":
			tok.kind, tok.text = tokRedefines, ":>>"
			l.advance(3)
		case len(rest) >= 2 && rest[:2] == ":>":
			tok.kind, tok.text = tokSpecial, ":>"
			l.advance(2)
		case len(rest) >= 2 && rest[:2] == "::":
			tok.kind, tok.text = tokPathSep, "::"
			l.advance(2)
		case len(rest) >= 2 && rest[:2] == ":=":
			tok.kind, tok.text = tokEquals, ":="
			l.advance(2)
		default:
			tok.kind, tok.text = tokColon, ":"
			l.advance(1)
		}
		return tok
	}

	r, size := utf8.DecodeRuneInString(l.src[l.offset:])
	if isIdentStart(r) {
		start := l.offset
		l.advance(size)
		for l.offset < len(l.src) {
			r, size = utf8.DecodeRuneInString(l.src[l.offset:])
			if !isIdentPart(r) {
				break
			}
			l.advance(size)
		}
		tok.kind = tokIdent
		tok.text = l.src[start:l.offset]
		return tok
	}

	tok.kind = tokInvalid
	tok.text = string(r)
	l.advance(size)
	return tok
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
