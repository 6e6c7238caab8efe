// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rule

import (
	"fmt"
	"strconv"
	"unicode"

	p "github.com/vektah/goparsify"
)

// Resolver resolves relation and constant names when parsing rules. *kb.KB
// implements Resolver.
type Resolver interface {
	ResolveRelation(name string) (id, arity int, exists bool)
	ConstantID(name string) (int, bool)
}

// parsedArg is an argument as written in the rule text, before names are
// resolved.
type parsedArg struct {
	kind ArgKind
	name string
	// numeric is set for constants written as #<id>.
	numeric bool
	id      int
}

type parsedPred struct {
	name string
	args []parsedArg
}

// ruleParser is the parser used by Parse, it produces a []parsedPred with the
// head first.
var ruleParser p.Parser

func init() {
	// unbroken character sequence used by relation names, variables and
	// constants.
	ident := p.Chars("A-Za-z0-9_.", 1)

	empty := p.Exact("?").Map(func(n *p.Result) {
		n.Result = parsedArg{kind: Empty}
	})
	quoted := p.StringLit(`"`).Map(func(n *p.Result) {
		n.Result = parsedArg{kind: Constant, name: n.Token}
	})
	numeric := p.Seq("#", p.Chars("0-9", 1)).Map(func(n *p.Result) {
		id, _ := strconv.Atoi(n.Child[1].Token)
		n.Result = parsedArg{kind: Constant, numeric: true, id: id}
	})
	named := ident.Map(func(n *p.Result) {
		kind := Constant
		if unicode.IsUpper(rune(n.Token[0])) {
			kind = Variable
		}
		n.Result = parsedArg{kind: kind, name: n.Token}
	})
	arg := p.Any(empty, quoted, numeric, named)

	pred := p.Seq(ident, "(", p.Cut(), p.Many(arg, ","), ")").Map(func(n *p.Result) {
		res := parsedPred{name: n.Child[0].Token}
		for _, c := range n.Child[3].Child {
			res.args = append(res.args, c.Result.(parsedArg))
		}
		n.Result = res
	})
	body := p.Seq(":-", p.Cut(), p.Many(pred, ",")).Map(func(n *p.Result) {
		preds := make([]parsedPred, len(n.Child[2].Child))
		for i, c := range n.Child[2].Child {
			preds[i] = c.Result.(parsedPred)
		}
		n.Result = preds
	})
	ruleParser = p.Seq(pred, p.Maybe(body)).Map(func(n *p.Result) {
		preds := []parsedPred{n.Child[0].Result.(parsedPred)}
		if n.Child[1].Result != nil {
			preds = append(preds, n.Child[1].Result.([]parsedPred)...)
		}
		n.Result = preds
	})
}

// Parse parses a rule written in the syntax produced by Format, for example
// "grandparent(X0,X1):-parent(X0,X2),parent(X2,X1)". Capitalized identifiers
// are variables, '?' is an empty argument, and everything else is a constant:
// a lower-case identifier, a quoted string, or #<id>. Variable ids are
// assigned in order of first appearance, so the written names need not be
// dense.
func Parse(text string, res Resolver) (*Rule, error) {
	result, err := p.Run(ruleParser, text)
	if err != nil {
		return nil, fmt.Errorf("unable to parse rule %q: %v", text, err)
	}
	parsed := result.([]parsedPred)
	vars := make(map[string]int)
	preds := make([]Predicate, len(parsed))
	for i, pp := range parsed {
		id, arity, exists := res.ResolveRelation(pp.name)
		if !exists {
			return nil, fmt.Errorf("unknown relation %q", pp.name)
		}
		if arity != len(pp.args) {
			return nil, fmt.Errorf("relation %v has arity %d, but %d arguments were given",
				pp.name, arity, len(pp.args))
		}
		preds[i] = Predicate{Relation: id, Args: make([]Argument, arity)}
		for j, a := range pp.args {
			switch a.kind {
			case Empty:
			case Variable:
				v, seen := vars[a.name]
				if !seen {
					v = len(vars)
					vars[a.name] = v
				}
				preds[i].Args[j] = Var(v)
			case Constant:
				c := a.id
				if !a.numeric {
					var exists bool
					c, exists = res.ConstantID(a.name)
					if !exists {
						return nil, fmt.Errorf("unknown constant %q", a.name)
					}
				}
				preds[i].Args[j] = Const(c)
			}
		}
	}
	return FromPredicates(preds...)
}
