// Package keymap implements key-chord parsing, context expressions, and
// priority-ordered command binding resolution.
package keymap

import (
	"strings"
)

// Modifiers is a set of modifier keys held during a chord.
type Modifiers struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
}

// Chord is a parsed key chord: a set of modifiers plus a single key.
type Chord struct {
	Mods Modifiers
	Key  string
}

// Parse splits input on '+', trims and lowercases each token, and maps
// modifier aliases (ctrl|control, alt|option, shift, meta|cmd|command|
// super|win) onto Modifiers; the single remaining non-modifier token
// becomes Key. Zero or two-or-more non-modifier tokens is a parse
// failure, as is empty input.
func Parse(input string) (Chord, bool) {
	if strings.TrimSpace(input) == "" {
		return Chord{}, false
	}

	var mods Modifiers
	var keyTokens []string

	for _, raw := range strings.Split(input, "+") {
		tok := strings.ToLower(strings.TrimSpace(raw))
		if tok == "" {
			continue
		}
		switch tok {
		case "ctrl", "control":
			mods.Ctrl = true
		case "alt", "option":
			mods.Alt = true
		case "shift":
			mods.Shift = true
		case "meta", "cmd", "command", "super", "win":
			mods.Meta = true
		default:
			keyTokens = append(keyTokens, tok)
		}
	}

	if len(keyTokens) != 1 {
		return Chord{}, false
	}

	return Chord{Mods: mods, Key: keyTokens[0]}, true
}

// NormalizeString parses input and renders it back through String, or
// returns "" if input does not parse.
func NormalizeString(input string) string {
	c, ok := Parse(input)
	if !ok {
		return ""
	}
	return c.String()
}

// String renders the chord as "Ctrl+Alt+Shift+Meta+Key", omitting absent
// modifiers, in that fixed order.
func (c Chord) String() string {
	var parts []string
	if c.Mods.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if c.Mods.Alt {
		parts = append(parts, "Alt")
	}
	if c.Mods.Shift {
		parts = append(parts, "Shift")
	}
	if c.Mods.Meta {
		parts = append(parts, "Meta")
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}

// MatchesEvent reports whether an incoming key event (with its own
// modifier state) matches this chord exactly.
func (c Chord) MatchesEvent(eventKey string, ctrl, alt, shift, meta bool) bool {
	return c.Mods.Ctrl == ctrl &&
		c.Mods.Alt == alt &&
		c.Mods.Shift == shift &&
		c.Mods.Meta == meta &&
		c.Key == strings.ToLower(eventKey)
}

// Context is a boolean evaluation environment for when-expressions.
// Missing keys evaluate to false.
type Context struct {
	values map[string]bool
}

// NewContext returns an empty Context.
func NewContext() Context {
	return Context{values: map[string]bool{}}
}

// With returns a copy of c with key set to value (builder-style).
func (c Context) With(key string, value bool) Context {
	next := Context{values: map[string]bool{}}
	for k, v := range c.values {
		next.values[k] = v
	}
	next.values[key] = value
	return next
}

// Set mutates c in place, setting key to value.
func (c *Context) Set(key string, value bool) {
	if c.values == nil {
		c.values = map[string]bool{}
	}
	c.values[key] = value
}

// Get returns key's value, or false if key is absent.
func (c Context) Get(key string) bool {
	return c.values[key]
}

// exprKind discriminates the private ContextExpr sum type.
type exprKind int

const (
	exprAlways exprKind = iota
	exprKey
	exprNotKey
	exprAnd
)

// ContextExpr is a parsed when-expression.
type ContextExpr struct {
	kind     exprKind
	key      string
	children []ContextExpr
}

// Always is the expression that is unconditionally true.
var Always = ContextExpr{kind: exprAlways}

// ParseContextExpr parses a "&&"-joined list of "name"/"!name" conjuncts.
// A nil or empty input parses to Always.
func ParseContextExpr(input *string) (ContextExpr, error) {
	if input == nil || strings.TrimSpace(*input) == "" {
		return Always, nil
	}

	var conjuncts []ContextExpr
	for _, raw := range strings.Split(*input, "&&") {
		tok := strings.TrimSpace(raw)
		if tok == "" {
			return ContextExpr{}, errEmptyConjunct
		}
		if strings.HasPrefix(tok, "!") {
			key := strings.TrimSpace(strings.TrimPrefix(tok, "!"))
			if key == "" {
				return ContextExpr{}, errEmptyConjunct
			}
			conjuncts = append(conjuncts, ContextExpr{kind: exprNotKey, key: key})
		} else {
			conjuncts = append(conjuncts, ContextExpr{kind: exprKey, key: tok})
		}
	}

	if len(conjuncts) == 1 {
		return conjuncts[0], nil
	}
	return ContextExpr{kind: exprAnd, children: conjuncts}, nil
}

// Evaluate reports whether e holds under context.
func (e ContextExpr) Evaluate(context Context) bool {
	switch e.kind {
	case exprAlways:
		return true
	case exprKey:
		return context.Get(e.key)
	case exprNotKey:
		return !context.Get(e.key)
	case exprAnd:
		for _, child := range e.children {
			if !child.Evaluate(context) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

var errEmptyConjunct = parseError("empty context expression conjunct")

type parseError string

func (e parseError) Error() string { return string(e) }
