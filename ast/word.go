// Package ast defines the tree of nodes produced by the parser: words
// and their expansion parts, commands, compounds, control flow, and
// redirections.
//
// The shapes mirror mvdan.cc/sh/v3/syntax's node set (syntax/nodes.go)
// but are reorganized around the spec's closed part/node taxonomy: a
// Word is always a non-empty ordered list of WordPart variants, and
// every node exposes Pos/End for diagnostics plus a Walk-friendly
// interface so printer and validator can traverse uniformly.
package ast

// Pos is a 1-based byte offset into the originating source.
type Pos int

// Node is implemented by every AST node.
type Node interface {
	Pos() Pos
	End() Pos
}

// QuoteContext records how the top-level container of a Word was
// quoted, which governs word-splitting and pathname expansion later.
type QuoteContext int

const (
	QuoteNone QuoteContext = iota
	QuoteSingle
	QuoteDouble
)

// Word is an ordered, non-empty sequence of parts. After expansion a
// Word yields zero or more string fields.
type Word struct {
	Parts []WordPart
	Quote QuoteContext
}

func (w *Word) Pos() Pos {
	if len(w.Parts) == 0 {
		return 0
	}
	return w.Parts[0].Pos()
}

func (w *Word) End() Pos {
	if len(w.Parts) == 0 {
		return 0
	}
	return w.Parts[len(w.Parts)-1].End()
}

// Lit reports the word's value when it is made up of a single Literal
// part; used by callers (e.g. the parser recognizing a NAME) that need
// a plain string without performing expansion.
func (w *Word) Lit() (string, bool) {
	if len(w.Parts) != 1 {
		return "", false
	}
	l, ok := w.Parts[0].(*Literal)
	if !ok {
		return "", false
	}
	return l.Value, true
}

// WordPart is implemented by every constituent of a Word.
type WordPart interface {
	Node
	wordPart()
}

type PartBase struct {
	From, To Pos
}

func (p PartBase) Pos() Pos { return p.From }
func (p PartBase) End() Pos { return p.To }

// Literal is raw, unexpanded text outside of any quoting.
type Literal struct {
	PartBase
	Value string
}

func (*Literal) wordPart() {}

// SingleQuoted carries its content verbatim; no expansion is ever
// applied inside it.
type SingleQuoted struct {
	PartBase
	Value string
}

func (*SingleQuoted) wordPart() {}

// DoubleQuoted holds nested parts with expansion enabled but globbing
// and word-splitting suppressed.
type DoubleQuoted struct {
	PartBase
	Parts []WordPart
}

func (*DoubleQuoted) wordPart() {}

// Variable is a simple, unbraced parameter reference: $name, $1..$9,
// $?, $$, $!, $#, $@, $*, $0, $_.
type Variable struct {
	PartBase
	Name string
}

func (*Variable) wordPart() {}

// ParamOpKind enumerates the ${...} modifier operators, applied to a
// VariableBraced in the fixed order the lexer recognized them.
type ParamOpKind int

const (
	OpDefault ParamOpKind = iota // :-
	OpAssignDefault               // :=
	OpError                       // :?
	OpAlternate                   // :+
	OpLength                      // #name (length, modeled as a flag on VariableBraced)
	OpRemovePrefix                // #pat / ##pat
	OpRemoveSuffix                // %pat / %%pat
	OpSubstitute                  // /pat/repl, //, /#, /%
	OpSubstring                   // :off[:len]
	OpCaseFirst                   // ^
	OpCaseAll                     // ^^
	OpLowerFirst                  // ,
	OpLowerAll                    // ,,
	OpTransform                    // @Q @E @P @A @a @L @U @K @k
	OpIndirect                     // !name
	OpSubscript                    // [idx | @ | *]
	OpPrefixNames                  // !prefix* / !prefix@
)

// SubstScope distinguishes the four forms of the ${//} replacement
// operator.
type SubstScope int

const (
	SubstFirst SubstScope = iota
	SubstAll
	SubstPrefix
	SubstSuffix
)

// SubscriptKind distinguishes array subscript forms.
type SubscriptKind int

const (
	SubscriptIndex SubscriptKind = iota
	SubscriptAllValues                // @
	SubscriptAllKeys                  // * used as a subscript
)

// TransformKind enumerates the ${var@X} transform letters.
type TransformKind byte

const (
	TransformQuote       TransformKind = 'Q'
	TransformEscape      TransformKind = 'E'
	TransformPrompt      TransformKind = 'P'
	TransformAssign      TransformKind = 'A'
	TransformAssignArray TransformKind = 'a'
	TransformLower       TransformKind = 'L'
	TransformUpper       TransformKind = 'U'
	TransformAttrs       TransformKind = 'K'
	TransformAttrsShort  TransformKind = 'k'
)

// ParamOp is one modifier applied to a VariableBraced, in source order.
type ParamOp struct {
	Kind ParamOpKind

	// OpDefault/Assign/Error/Alternate, OpRemovePrefix/Suffix:
	Word    *Word // the pattern or replacement text, as a Word so it can itself expand
	Greedy  bool  // true for the ## / %% / doubled forms

	// OpSubstitute
	Pattern     *Word
	Replacement *Word
	Scope       SubstScope

	// OpSubstring
	Offset *Word
	Length *Word
	HasLen bool

	// OpCaseFirst/OpCaseAll/OpLowerFirst/OpLowerAll
	Pattern2 *Word

	// OpTransform
	Transform TransformKind

	// OpSubscript
	SubKind SubscriptKind
	Index   *Word

	// OpPrefixNames
	Prefix    string
	WantNames bool // !p* (names) vs !p@ (names, distinct form but same semantics here)
}

// VariableBraced is a ${...} expansion: a name plus an ordered list of
// modifier operators.
type VariableBraced struct {
	PartBase
	Name    string
	Length  bool // ${#name}
	Indirect bool // leading ! before Ops applies (nameref indirection)
	Ops     []ParamOp
}

func (*VariableBraced) wordPart() {}

// CommandSubst is $(...) or legacy `...`. Raw is the interior text
// captured by the lexer (which recursively tokenizes it purely to
// surface lexical diagnostics early); Stmts is the fully parsed
// interior, filled in by the parser by recursively invoking itself on
// Raw so substitutions ride the exact same grammar as the outer
// script.
type CommandSubst struct {
	PartBase
	Raw      string
	Stmts    []Stmt
	Backtick bool
}

func (*CommandSubst) wordPart() {}

// ArithExpand is $((expr)); the interior is kept as a raw string and
// evaluated by the arith package at expansion time.
type ArithExpand struct {
	PartBase
	Expr string
}

func (*ArithExpand) wordPart() {}

// ProcessSubst is <(...) or >(...).
type ProcessSubst struct {
	PartBase
	Raw   string
	Stmts []Stmt
	Out   bool // true for >(...)
}

func (*ProcessSubst) wordPart() {}

// BraceExpand is an unexpanded {a,b,c} or {start..end[..step]} run.
type BraceExpand struct {
	PartBase
	List  []*Word // nil if this is a Range
	Start string
	End   string
	Step  string
	HasStep bool
	ZeroPad int // number of digits to zero-pad to, 0 if none
	IsRange bool
}

func (*BraceExpand) wordPart() {}
