// Package css parses stylesheets produced by the converter into ordered
// items which could be filtered, rewritten and written back.
package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into structured rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. Syntax errors are recoverable and
// are reported in Stylesheet.Warnings, only read errors are returned.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) (*Stylesheet, error) {
	name := ""
	if len(source) > 0 {
		name = source[0]
	}
	if name != "" {
		p.log.Debug("Parsing CSS", zap.String("source", name), zap.Int("bytes", len(data)))
	}

	sheet := &Stylesheet{
		Items:    make([]Item, 0),
		Warnings: make([]string, 0),
	}

	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)

	items, _, err := p.parseBlock(parser, sheet, false)
	if err != nil {
		return nil, fmt.Errorf("unable to parse stylesheet %s: %w", name, err)
	}
	sheet.Items = items

	p.log.Debug("Parsed CSS", zap.String("source", name), zap.Int("items", len(sheet.Items)), zap.Int("warnings", len(sheet.Warnings)))
	return sheet, nil
}

// handleError decides what to do with ErrorGrammar. It returns true when
// parsing could continue.
func (p *Parser) handleError(parser *css.Parser, sheet *Stylesheet) (bool, error) {
	if parser.HasParseError() {
		msg := parser.Err().Error()
		sheet.Warnings = append(sheet.Warnings, msg)
		p.log.Debug("CSS parse error", zap.String("error", msg))
		return true, nil
	}
	if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return false, nil
}

// parseBlock collects items and declarations until end of the input or,
// when nested, until end of the enclosing at-rule block.
func (p *Parser) parseBlock(parser *css.Parser, sheet *Stylesheet, nested bool) ([]Item, Declarations, error) {
	var (
		items []Item
		decls Declarations
	)
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			more, err := p.handleError(parser, sheet)
			if err != nil {
				return nil, nil, err
			}
			if !more {
				if nested {
					sheet.Warnings = append(sheet.Warnings, "unexpected end of input in at-rule block")
				}
				return items, decls, nil
			}

		case css.EndAtRuleGrammar:
			if nested {
				return items, decls, nil
			}

		case css.BeginRulesetGrammar:
			rule := &Rule{Selectors: splitSelectors(parser.Values())}
			var err error
			if rule.Declarations, err = p.parseDeclarations(parser, sheet); err != nil {
				return nil, nil, err
			}
			if len(rule.Selectors) == 0 {
				sheet.Warnings = append(sheet.Warnings, "ruleset without selector")
				continue
			}
			items = append(items, Item{Rule: rule})

		case css.BeginAtRuleGrammar:
			name, prelude := string(data), joinTokens(parser.Values())
			children, inner, err := p.parseBlock(parser, sheet, true)
			if err != nil {
				return nil, nil, err
			}
			if name == "@font-face" {
				items = append(items, Item{FontFace: &FontFace{Declarations: inner}})
				continue
			}
			p.log.Debug("Parsed @-rule block", zap.String("rule", name), zap.String("prelude", prelude), zap.Int("items", len(children)))
			items = append(items, Item{AtRule: &AtRule{Name: name, Prelude: prelude, Block: true, Declarations: inner, Items: children}})

		case css.AtRuleGrammar:
			items = append(items, Item{AtRule: &AtRule{Name: string(data), Prelude: joinTokens(parser.Values())}})

		case css.DeclarationGrammar:
			// only at-rules with declaration lists (@font-face, @page) get here
			decls = append(decls, makeDeclaration(string(data), parser.Values()))

		case css.CustomPropertyGrammar:
			decls = append(decls, makeDeclaration(string(data), parser.Values()))
		}
	}
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
func (p *Parser) parseDeclarations(parser *css.Parser, sheet *Stylesheet) (Declarations, error) {
	var decls Declarations
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.EndRulesetGrammar:
			return decls, nil

		case css.ErrorGrammar:
			more, err := p.handleError(parser, sheet)
			if err != nil {
				return nil, err
			}
			if !more {
				return decls, nil
			}

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			decls = append(decls, makeDeclaration(string(data), parser.Values()))
		}
	}
}

// makeDeclaration builds declaration from value tokens, trailing
// "!important" is moved into the flag.
func makeDeclaration(property string, tokens []css.Token) Declaration {
	d := Declaration{Property: property}

	// drop trailing whitespace before looking for !important
	end := len(tokens)
	for end > 0 && tokens[end-1].TokenType == css.WhitespaceToken {
		end--
	}
	if end >= 2 &&
		tokens[end-1].TokenType == css.IdentToken && strings.EqualFold(string(tokens[end-1].Data), "important") &&
		tokens[end-2].TokenType == css.DelimToken && string(tokens[end-2].Data) == "!" {
		d.Important = true
		end -= 2
	}
	d.Value = joinTokens(tokens[:end])
	return d
}

// joinTokens builds normalized text out of tokens. Whitespace is collapsed
// to single space and trimmed.
func joinTokens(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			sb.WriteByte(' ')
			continue
		}
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

// splitSelectors splits grouped selector tokens on top-level commas.
func splitSelectors(tokens []css.Token) []string {
	var (
		selectors []string
		level     int
		start     int
	)
	add := func(part []css.Token) {
		if s := joinTokens(part); s != "" {
			selectors = append(selectors, s)
		}
	}
	for i, t := range tokens {
		switch t.TokenType {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			level++
		case css.RightParenthesisToken, css.RightBracketToken:
			if level > 0 {
				level--
			}
		case css.CommaToken:
			if level == 0 {
				add(tokens[start:i])
				start = i + 1
			}
		}
	}
	add(tokens[start:])
	return selectors
}
