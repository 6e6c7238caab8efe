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
	"strconv"
	"strings"
	"unicode"
)

// Names resolves relation and constant ids to names when formatting rules.
// *kb.KB implements Names.
type Names interface {
	RelationName(id int) string
	ConstantName(id int) string
}

// numericNames formats ids as numbers, it's used by String.
type numericNames struct{}

func (numericNames) RelationName(id int) string {
	return "#" + strconv.Itoa(id)
}

func (numericNames) ConstantName(id int) string {
	return "#" + strconv.Itoa(id)
}

// String formats the rule using relation & constant ids, e.g.
// "#0(X0,?):-#1(X0,#7)".
func (r *Rule) String() string {
	return r.Format(numericNames{})
}

// Format formats the rule in the syntax accepted by Parse, e.g.
// "parent(X0,?):-father(X0,?)". Variables are named X<id>, empty arguments
// are '?'.
func (r *Rule) Format(names Names) string {
	var b strings.Builder
	for i, p := range r.preds {
		switch i {
		case 0:
		case 1:
			b.WriteString(":-")
		default:
			b.WriteByte(',')
		}
		b.WriteString(names.RelationName(p.Relation))
		b.WriteByte('(')
		for j, a := range p.Args {
			if j > 0 {
				b.WriteByte(',')
			}
			switch a.Kind {
			case Empty:
				b.WriteByte('?')
			case Variable:
				b.WriteByte('X')
				b.WriteString(strconv.Itoa(a.Value))
			case Constant:
				b.WriteString(constantToken(names.ConstantName(a.Value)))
			}
		}
		b.WriteByte(')')
	}
	return b.String()
}

// constantToken returns the constant name as is when Parse would read it back
// as a constant, and quoted otherwise.
func constantToken(name string) string {
	if name == "" {
		return `""`
	}
	if name[0] == '#' {
		if _, err := strconv.Atoi(name[1:]); err == nil {
			return name
		}
	}
	for i, c := range name {
		if !(c == '_' || c == '.' || c <= unicode.MaxASCII && (unicode.IsLetter(c) || unicode.IsDigit(c))) {
			return strconv.Quote(name)
		}
		if i == 0 && unicode.IsUpper(c) {
			return strconv.Quote(name)
		}
	}
	return name
}
