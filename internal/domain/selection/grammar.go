package selection

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Grammar, lowest precedence first:
//
//	or      := and ( "or" and )*
//	and     := unary ( "and" unary )*
//	unary   := "not" unary | primary
//	primary := "(" or ")" | "all" | "none" | "hetero"
//	         | "within" <cutoff> "of" unary
//	         | <field> <value>+
//
//nolint:govet // participle grammar tags are not standard struct tags
type orExpr struct {
	Terms []*andExpr `parser:"@@ ( \"or\" @@ )*"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type andExpr struct {
	Terms []*unaryExpr `parser:"@@ ( \"and\" @@ )*"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type unaryExpr struct {
	Not     *unaryExpr   `parser:"  \"not\" @@"`
	Primary *primaryExpr `parser:"| @@"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type primaryExpr struct {
	Group  *orExpr     `parser:"  \"(\" @@ \")\""`
	All    bool        `parser:"| @\"all\""`
	None   bool        `parser:"| @\"none\""`
	Hetero bool        `parser:"| @\"hetero\""`
	Within *withinExpr `parser:"| @@"`
	Field  *fieldExpr  `parser:"| @@"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type withinExpr struct {
	Cutoff float64    `parser:"\"within\" @(Float | Word) \"of\""`
	Target *unaryExpr `parser:"@@"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type fieldExpr struct {
	Field  string   `parser:"@(\"chain\" | \"name\" | \"element\" | \"resname\" | \"residue\" | \"molecule\" | \"id\")"`
	Values []string `parser:"@Word+"`
}

// Keywords are matched before words so that "and" never becomes a value.
var selectionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Keyword", Pattern: `\b(?:and|or|not|all|none|hetero|within|of|chain|name|element|resname|residue|molecule|id)\b`},
	{Name: "Float", Pattern: `[0-9]+\.[0-9]*`},
	{Name: "Word", Pattern: `[A-Za-z0-9_'*][A-Za-z0-9_'*-]*`},
	{Name: "Punct", Pattern: `[()]`},
})

var selectionParser = participle.MustBuild[orExpr](
	participle.Lexer(selectionLexer),
	participle.Elide("Whitespace"),
)

//Personal.AI order the ending
