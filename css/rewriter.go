// Package css implements token-level rewriting of CSS text. It does not keep
// an AST - the grammar stream is re-emitted as it is walked, with hooks
// applied to declarations and url() references on the way. Optimization
// transforms are built on top of this single pass.
package css

import (
	"bytes"
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Declaration is a single property declaration emitted by a hook.
type Declaration struct {
	Property string
	Value    string
}

// Hooks customize a rewrite pass. Nil hooks leave the corresponding
// constructs untouched.
type Hooks struct {
	// Declaration is called for every property declaration with the property
	// name and normalized value text. Returned declarations are emitted
	// immediately before the original one, in order.
	Declaration func(property, value string) []Declaration
	// URL is called for every url() reference with the unquoted target.
	// Returning ok=false keeps the original reference byte-for-byte.
	URL func(target string) (rewritten string, ok bool)
}

// Rewriter walks a CSS grammar stream and re-emits it applying hooks.
type Rewriter struct {
	log *zap.Logger
}

// NewRewriter creates a new stream rewriter.
func NewRewriter(log *zap.Logger) *Rewriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Rewriter{log: log.Named("css-rewriter")}
}

// Rewrite re-emits CSS text with hooks applied. Output is not minified or
// otherwise normalized beyond what the hooks change - formatting of untouched
// constructs is preserved at token granularity.
func (r *Rewriter) Rewrite(data []byte, hooks Hooks) ([]byte, error) {
	input := parse.NewInput(bytes.NewReader(data))
	p := css.NewParser(input, false)

	var sb strings.Builder
	sb.Grow(len(data))

	for {
		gt, _, gdata := p.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := p.Err(); err != nil && !errors.Is(err, io.EOF) {
				r.log.Debug("CSS parse error", zap.Error(err))
				return nil, err
			}
			return []byte(sb.String()), nil

		case css.CommentGrammar:
			sb.Write(gdata)

		case css.AtRuleGrammar:
			sb.Write(gdata)
			r.writePrelude(p.Values(), hooks, &sb)
			sb.WriteByte(';')

		case css.BeginAtRuleGrammar:
			sb.Write(gdata)
			r.writePrelude(p.Values(), hooks, &sb)
			sb.WriteByte('{')

		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			sb.WriteByte('}')

		case css.QualifiedRuleGrammar:
			sb.Write(gdata)
			r.writeValues(p.Values(), hooks, &sb)
			sb.WriteByte(',')

		case css.BeginRulesetGrammar:
			sb.Write(gdata)
			r.writeValues(p.Values(), hooks, &sb)
			sb.WriteByte('{')

		case css.DeclarationGrammar:
			r.writeDeclaration(string(gdata), p.Values(), hooks, &sb)

		case css.CustomPropertyGrammar:
			sb.Write(gdata)
			sb.WriteByte(':')
			serializeTokens(p.Values(), &sb)
			sb.WriteByte(';')

		case css.TokenGrammar:
			sb.Write(gdata)
		}
	}
}

func (r *Rewriter) writeDeclaration(prop string, values []css.Token, hooks Hooks, sb *strings.Builder) {
	if hooks.Declaration != nil {
		for _, d := range hooks.Declaration(prop, valueString(values)) {
			sb.WriteString(d.Property)
			sb.WriteByte(':')
			sb.WriteString(d.Value)
			sb.WriteByte(';')
		}
	}
	sb.WriteString(prop)
	sb.WriteByte(':')
	r.writeValues(values, hooks, sb)
	sb.WriteByte(';')
}

// writePrelude writes at-rule prelude tokens keeping the separating space
// after the at-keyword in place.
func (r *Rewriter) writePrelude(tokens []css.Token, hooks Hooks, sb *strings.Builder) {
	if len(tokens) > 0 && tokens[0].TokenType != css.WhitespaceToken {
		sb.WriteByte(' ')
	}
	r.writeValues(tokens, hooks, sb)
}

// writeValues re-emits value tokens, rewriting url() references when the URL
// hook is set. Both token shapes are handled: a bare URLToken (url(ref)) and
// a url( function with a quoted string argument.
func (r *Rewriter) writeValues(tokens []css.Token, hooks Hooks, sb *strings.Builder) {
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]

		if hooks.URL == nil {
			sb.Write(t.Data)
			continue
		}

		switch t.TokenType {
		case css.URLToken:
			r.writeURL(ExtractURL(t.Data), t.Data, hooks, sb)

		case css.FunctionToken:
			if !strings.EqualFold(string(t.Data), "url(") {
				sb.Write(t.Data)
				continue
			}
			end, target, ok := quotedURLSpan(tokens, i)
			if !ok {
				sb.Write(t.Data)
				continue
			}
			var raw strings.Builder
			serializeTokens(tokens[i:end+1], &raw)
			r.writeURL(target, []byte(raw.String()), hooks, sb)
			i = end

		default:
			sb.Write(t.Data)
		}
	}
}

func (r *Rewriter) writeURL(target string, original []byte, hooks Hooks, sb *strings.Builder) {
	rewritten, ok := hooks.URL(target)
	if !ok {
		sb.Write(original)
		return
	}
	sb.WriteString(`url("`)
	sb.WriteString(EscapeDoubleQuoted(rewritten))
	sb.WriteString(`")`)
}

// quotedURLSpan locates the closing parenthesis of a url("...") function
// starting at the FunctionToken index and returns the unquoted argument.
func quotedURLSpan(tokens []css.Token, start int) (end int, target string, ok bool) {
	for j := start + 1; j < len(tokens); j++ {
		switch tokens[j].TokenType {
		case css.WhitespaceToken:
			continue
		case css.StringToken:
			if ok {
				return 0, "", false
			}
			target = Unquote(string(tokens[j].Data))
			ok = true
		case css.RightParenthesisToken:
			return j, target, ok
		default:
			return 0, "", false
		}
	}
	return 0, "", false
}
