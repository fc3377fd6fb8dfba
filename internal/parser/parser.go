// Package parser turns source text of the modeling language into the
// immutable syntax trees consumed by the semantic engine. The parser is
// error-tolerant: a malformed construct is reported as a diagnostic and
// skipped, so one bad element never loses the rest of the file.
package parser

import (
	"github.com/mohammed-j-mahmoud/syster/internal/diag"
	"github.com/mohammed-j-mahmoud/syster/internal/syntax"
)

// Declaration keywords that introduce a definition (with "def") or a usage.
var usageKeywords = map[string]bool{
	"part": true, "port": true, "action": true, "state": true,
	"requirement": true, "item": true, "connection": true,
	"interface": true, "attribute": true, "constraint": true,
	"allocation": true, "analysis": true, "verification": true,
	"occurrence": true, "view": true, "viewpoint": true, "rendering": true,
}

// KerML classifier keywords.
var classifierKeywords = map[string]bool{
	"class": true, "struct": true, "datatype": true, "assoc": true,
	"behavior": true, "function": true, "predicate": true, "type": true,
}

type Parser struct {
	lex   *lexer
	cur   token
	file  string
	diags []diag.Diagnostic
}

func New() *Parser {
	return &Parser{}
}

// Parse produces the syntax tree for one file. Parse errors are returned as
// diagnostics alongside whatever could be recovered.
func (p *Parser) Parse(path, src string) (*syntax.File, []diag.Diagnostic) {
	p.lex = newLexer(src)
	p.file = path
	p.diags = nil
	p.advance()

	f := &syntax.File{Path: path}
	for p.cur.kind != tokEOF {
		el := p.parseElement(nil)
		if el != nil {
			f.Elements = append(f.Elements, el)
		}
	}
	return f, p.diags
}

func (p *Parser) advance() {
	p.cur = p.lex.next()
}

func (p *Parser) spanHere(length int) diag.Span {
	return diag.SpanAt(p.cur.line, p.cur.column, length)
}

func (p *Parser) errorf(format string, args ...any) {
	p.diags = append(p.diags, diag.Error(diag.KindParseError, p.file, p.spanHere(len(p.cur.text)), format, args...))
}

// resync skips to the next ';' or the end of the enclosing block.
func (p *Parser) resync() {
	depth := 0
	for p.cur.kind != tokEOF {
		switch p.cur.kind {
		case tokSemi:
			if depth == 0 {
				p.advance()
				return
			}
		case tokLBrace:
			depth++
		case tokRBrace:
			if depth == 0 {
				return
			}
			depth--
		}
		p.advance()
	}
}

// parseElement parses one top-level or body element. A "satisfy" clause has
// no element of its own: it attaches a satisfaction target to parent and
// returns nil.
func (p *Parser) parseElement(parent *syntax.Element) *syntax.Element {
	if p.cur.kind != tokIdent {
		p.errorf("expected declaration, found %q", p.cur.text)
		p.resync()
		return nil
	}

	el := &syntax.Element{Span: p.spanHere(len(p.cur.text))}

	// Prefixes and direction.
	for {
		switch p.cur.text {
		case "abstract":
			el.Abstract = true
			p.advance()
			continue
		case "variation":
			el.Variation = true
			p.advance()
			continue
		case "in", "out", "inout":
			el.Direction = p.cur.text
			p.advance()
			continue
		case "ref":
			p.advance()
			continue
		}
		break
	}

	if p.cur.kind != tokIdent {
		p.errorf("expected declaration keyword, found %q", p.cur.text)
		p.resync()
		return nil
	}

	switch {
	case p.cur.text == "package":
		return p.parsePackage(el)
	case p.cur.text == "import":
		return p.parseImport(el)
	case p.cur.text == "alias":
		return p.parseAlias(el)
	case p.cur.text == "satisfy":
		p.parseSatisfy(parent)
		return nil
	case p.cur.text == "feature":
		el.Kind = syntax.KindFeature
		el.DefKind = "feature"
		p.advance()
		return p.parseNamedElement(el, false)
	case classifierKeywords[p.cur.text]:
		el.Kind = syntax.KindClassifier
		el.DefKind = p.cur.text
		p.advance()
		return p.parseNamedElement(el, true)
	case usageKeywords[p.cur.text]:
		el.DefKind = p.cur.text
		p.advance()
		if p.cur.kind == tokIdent && p.cur.text == "def" {
			el.Kind = syntax.KindDefinition
			p.advance()
			return p.parseNamedElement(el, true)
		}
		el.Kind = syntax.KindUsage
		return p.parseNamedElement(el, false)
	case p.cur.text == "doc":
		// Documentation bodies carry no declarations.
		p.advance()
		p.resync()
		return nil
	default:
		p.errorf("unknown declaration keyword %q", p.cur.text)
		p.resync()
		return nil
	}
}

func (p *Parser) parsePackage(el *syntax.Element) *syntax.Element {
	p.advance() // "package"
	el.Kind = syntax.KindPackage
	if p.cur.kind != tokIdent {
		p.errorf("expected package name, found %q", p.cur.text)
		p.resync()
		return nil
	}
	el.Name = p.cur.text
	el.Span = p.spanHere(len(p.cur.text))
	p.advance()
	p.parseBodyOrSemi(el)
	return el
}

func (p *Parser) parseImport(el *syntax.Element) *syntax.Element {
	p.advance() // "import"
	el.Kind = syntax.KindImport
	el.Span = p.spanHere(len(p.cur.text))

	path, wildcard := p.parseImportPath()
	if path == "" {
		p.resync()
		return nil
	}
	el.ImportPath = path
	switch wildcard {
	case "*":
		el.Import = syntax.ImportNamespace
	case "**":
		el.Import = syntax.ImportRecursive
	default:
		el.Import = syntax.ImportMember
		if p.cur.kind == tokIdent && p.cur.text == "as" {
			p.advance()
			if p.cur.kind != tokIdent {
				p.errorf("expected name after 'as', found %q", p.cur.text)
				p.resync()
				return nil
			}
			el.ImportAs = p.cur.text
			p.advance()
		}
	}
	p.expectSemi()
	return el
}

func (p *Parser) parseAlias(el *syntax.Element) *syntax.Element {
	p.advance() // "alias"
	el.Kind = syntax.KindAlias
	if p.cur.kind != tokIdent {
		p.errorf("expected alias name, found %q", p.cur.text)
		p.resync()
		return nil
	}
	el.Name = p.cur.text
	el.Span = p.spanHere(len(p.cur.text))
	p.advance()
	if p.cur.kind != tokIdent || p.cur.text != "for" {
		p.errorf("expected 'for' in alias declaration, found %q", p.cur.text)
		p.resync()
		return nil
	}
	p.advance()
	target, _ := p.parseQualifiedName()
	if target == "" {
		p.errorf("expected alias target, found %q", p.cur.text)
		p.resync()
		return nil
	}
	el.AliasTarget = target
	p.expectSemi()
	return el
}

func (p *Parser) parseSatisfy(parent *syntax.Element) {
	p.advance() // "satisfy"
	target, span := p.parseQualifiedName()
	if target == "" {
		p.errorf("expected requirement name after 'satisfy', found %q", p.cur.text)
		p.resync()
		return
	}
	// Optional "by subject" clause; the subject is a plain reference.
	if p.cur.kind == tokIdent && p.cur.text == "by" {
		p.advance()
		p.parseQualifiedName()
	}
	if parent != nil {
		parent.Satisfies = append(parent.Satisfies, syntax.Ref{Target: target, Span: span})
	}
	p.expectSemi()
}

// parseNamedElement handles classifiers, definitions, usages and features
// after their keywords have been consumed. isType selects whether ":>"
// means specialization (types) or subsetting (usages and features).
func (p *Parser) parseNamedElement(el *syntax.Element, isType bool) *syntax.Element {
	if p.cur.kind == tokIdent && !isClauseKeyword(p.cur.text) {
		el.Name = p.cur.text
		el.Span = p.spanHere(len(p.cur.text))
		p.advance()
	} else if isType {
		p.errorf("expected name after %q", el.DefKind)
		p.resync()
		return nil
	}

	p.parseRelationshipClauses(el, isType)
	p.parseBodyOrSemi(el)
	return el
}

func isClauseKeyword(text string) bool {
	switch text {
	case "specializes", "subsets", "redefines":
		return true
	}
	return false
}

func (p *Parser) parseRelationshipClauses(el *syntax.Element, isType bool) {
	for {
		switch {
		case p.cur.kind == tokColon:
			p.advance()
			target, span := p.parseQualifiedName()
			if target == "" {
				p.errorf("expected type name after ':', found %q", p.cur.text)
				return
			}
			el.TypedBy = &syntax.Ref{Target: target, Span: span}
		case p.cur.kind == tokSpecial || (p.cur.kind == tokIdent && (p.cur.text == "specializes" || p.cur.text == "subsets")):
			subsetting := !isType
			if p.cur.kind == tokIdent {
				subsetting = p.cur.text == "subsets"
			}
			p.advance()
			refs := p.parseTargetList()
			if subsetting {
				el.Subsets = append(el.Subsets, refs...)
			} else {
				el.Specializes = append(el.Specializes, refs...)
			}
		case p.cur.kind == tokRedefines || (p.cur.kind == tokIdent && p.cur.text == "redefines"):
			p.advance()
			el.Redefines = append(el.Redefines, p.parseTargetList()...)
		case p.cur.kind == tokLBrack:
			// Multiplicity bounds carry no declarations.
			for p.cur.kind != tokRBrack && p.cur.kind != tokEOF {
				p.advance()
			}
			if p.cur.kind == tokRBrack {
				p.advance()
			}
		case p.cur.kind == tokEquals:
			p.skipValueExpression()
		default:
			return
		}
	}
}

// skipValueExpression discards a value binding. Identifiers in expression
// position are references, never declarations, and the engine does not
// evaluate them.
func (p *Parser) skipValueExpression() {
	p.advance() // "=" or ":="
	depth := 0
	for p.cur.kind != tokEOF {
		switch p.cur.kind {
		case tokLParen, tokLBrack:
			depth++
		case tokRParen, tokRBrack:
			depth--
		case tokSemi, tokLBrace:
			if depth <= 0 {
				return
			}
		}
		p.advance()
	}
}

func (p *Parser) parseTargetList() []syntax.Ref {
	var refs []syntax.Ref
	for {
		target, span := p.parseQualifiedName()
		if target == "" {
			p.errorf("expected target name, found %q", p.cur.text)
			return refs
		}
		refs = append(refs, syntax.Ref{Target: target, Span: span})
		if p.cur.kind != tokComma {
			return refs
		}
		p.advance()
	}
}

func (p *Parser) parseBodyOrSemi(el *syntax.Element) {
	switch p.cur.kind {
	case tokSemi:
		p.advance()
	case tokLBrace:
		p.advance()
		for p.cur.kind != tokRBrace && p.cur.kind != tokEOF {
			child := p.parseElement(el)
			if child != nil {
				el.Children = append(el.Children, child)
			}
		}
		if p.cur.kind == tokRBrace {
			p.advance()
		} else {
			p.errorf("unterminated body for %q", el.Name)
		}
	default:
		p.errorf("expected ';' or body after %q, found %q", el.Name, p.cur.text)
		p.resync()
	}
}

// parseQualifiedName consumes IDENT ("::" IDENT)* and returns the joined
// path with the span of its first segment.
func (p *Parser) parseQualifiedName() (string, diag.Span) {
	if p.cur.kind != tokIdent {
		return "", diag.Span{}
	}
	span := p.spanHere(len(p.cur.text))
	name := p.cur.text
	p.advance()
	for p.cur.kind == tokPathSep {
		p.advance()
		if p.cur.kind != tokIdent {
			p.errorf("expected name segment after '::', found %q", p.cur.text)
			return name, span
		}
		name += "::" + p.cur.text
		p.advance()
	}
	return name, span
}

// parseImportPath consumes a qualified path with an optional trailing
// wildcard segment and returns the path plus "", "*" or "**".
func (p *Parser) parseImportPath() (string, string) {
	if p.cur.kind != tokIdent {
		p.errorf("expected import path, found %q", p.cur.text)
		return "", ""
	}
	name := p.cur.text
	p.advance()
	for p.cur.kind == tokPathSep {
		p.advance()
		switch p.cur.kind {
		case tokIdent:
			name += "::" + p.cur.text
			p.advance()
		case tokStar:
			p.advance()
			return name, "*"
		case tokDoubleStar:
			p.advance()
			return name, "**"
		default:
			p.errorf("expected name segment or wildcard after '::', found %q", p.cur.text)
			return name, ""
		}
	}
	return name, ""
}

func (p *Parser) expectSemi() {
	if p.cur.kind != tokSemi {
		p.errorf("expected ';', found %q", p.cur.text)
		p.resync()
		return
	}
	p.advance()
}
