// Copyright 2025 The relayd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package regex

import "fmt"

// SyntaxError 是编译正则表达式字符串时的语法错误。
type SyntaxError struct {
	msg string
}

func (e *SyntaxError) Error() string { return e.msg }

func syntaxErrorf(format string, args ...any) error {
	return &SyntaxError{msg: fmt.Sprintf(format, args...)}
}

// 支持的元字符: ( ) | + * ? [ ] ^ 反斜杠转义其中任意一个。
var specialChars = map[byte]bool{
	'(': true, ')': true, '|': true, '+': true,
	'*': true, '?': true, '[': true, ']': true, '^': true,
}

// tokenizer 把模式字符串切成一个个"词"(单个字符 或反斜杠加一个字符的转
// 义序列) 支持 peek/advance 两种原语 对应原型的 get()/next()。
type tokenizer struct {
	s string
	i int
}

// peek 是词素的字符串形式 长度 1 或 2(转义)。空字符串+ok=false 表示已到末尾。
func (tk *tokenizer) peek() (string, bool, error) {
	if tk.i >= len(tk.s) {
		return "", false, nil
	}
	if tk.s[tk.i] == '\\' {
		if tk.i >= len(tk.s)-1 {
			return "", false, syntaxErrorf("'\\' cannot be placed at the end of the pattern")
		}
		return tk.s[tk.i : tk.i+2], true, nil
	}
	return tk.s[tk.i : tk.i+1], true, nil
}

func (tk *tokenizer) advance() {
	if tk.i >= len(tk.s) {
		return
	}
	if tk.s[tk.i] == '\\' {
		tk.i += 2
		return
	}
	tk.i++
}

// literalByte 把一个词素(可能带转义前缀)归约为它代表的字面字节。
// \r \n \t 分别代表回车 换行 制表符 其余转义代表被转义的字符本身。
func literalByte(tok string) byte {
	if len(tok) == 2 && tok[0] == '\\' {
		switch tok[1] {
		case 'r':
			return '\r'
		case 'n':
			return '\n'
		case 't':
			return '\t'
		}
		return tok[1]
	}
	return tok[0]
}

// isAtomStart 判断当前词素是否可以作为一个原子(F1)的开头:
// '(' '.' '[' 或任意非特殊字符(含转义)。
func isAtomStart(tok string, ok bool) bool {
	if !ok {
		return false
	}
	if tok == "(" || tok == "." || tok == "[" {
		return true
	}
	return !specialChars[tok[0]] || len(tok) == 2
}

// astNode 是语法树节点的公共接口 compile 把它翻译为一个 NFA 片段。
type astNode interface {
	compile(b *builder) frag
}

// parser 实现与原型完全对应的手写 LL(1) 递归下降文法:
//
//	E -> T E'      E' -> '|' T E' | ε
//	T -> F T'      T' -> F T' | ε
//	F -> atom F'   F' -> '?' F' | '*' F' | '+' F' | ε
//
// 其中 atom 是 '(' E ')' '.' 一个字面字符 或 '[' 字符组 ']'。
type parser struct {
	tk *tokenizer
}

func parsePattern(s string) (astNode, error) {
	p := &parser{tk: &tokenizer{s: s}}
	expr, err := p.parseAlt()
	if err != nil {
		return nil, err
	}
	if tok, ok, err := p.tk.peek(); err != nil {
		return nil, err
	} else if ok {
		return nil, syntaxErrorf("syntax error near %q", tok)
	}
	return expr, nil
}

func (p *parser) parseAlt() (astNode, error) {
	tok, ok, err := p.tk.peek()
	if err != nil {
		return nil, err
	}
	if !isAtomStart(tok, ok) {
		if ok {
			return nil, syntaxErrorf("syntax error near %q", tok)
		}
		return nil, syntaxErrorf("syntax error: unexpected end of pattern")
	}
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	return p.parseAltTail(left)
}

func (p *parser) parseAltTail(left astNode) (astNode, error) {
	tok, ok, err := p.tk.peek()
	if err != nil {
		return nil, err
	}
	if !ok || tok != "|" {
		return left, nil
	}
	p.tk.advance()
	right, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	return p.parseAltTail(&altNode{left, right})
}

func (p *parser) parseConcat() (astNode, error) {
	tok, ok, err := p.tk.peek()
	if err != nil {
		return nil, err
	}
	if !isAtomStart(tok, ok) {
		if ok {
			return nil, syntaxErrorf("syntax error near %q", tok)
		}
		return nil, syntaxErrorf("syntax error: unexpected end of pattern")
	}
	left, err := p.parseQuantified()
	if err != nil {
		return nil, err
	}
	return p.parseConcatTail(left)
}

func (p *parser) parseConcatTail(left astNode) (astNode, error) {
	tok, ok, err := p.tk.peek()
	if err != nil {
		return nil, err
	}
	if !isAtomStart(tok, ok) {
		return left, nil
	}
	right, err := p.parseQuantified()
	if err != nil {
		return nil, err
	}
	return p.parseConcatTail(&concatNode{left, right})
}

// parseQuantified 解析一个原子(atom)并贪婪地吞下其后任意数量的
// ? * + 后缀 —— 后缀可以任意组合出现 例如 a?* 与原型一致。
func (p *parser) parseQuantified() (astNode, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return p.parseQuantifierTail(atom), nil
}

func (p *parser) parseQuantifierTail(e astNode) astNode {
	tok, ok, _ := p.tk.peek()
	if !ok {
		return e
	}
	switch tok {
	case "?":
		p.tk.advance()
		return &optionNode{p.parseQuantifierTail(e)}
	case "*":
		p.tk.advance()
		return &starNode{p.parseQuantifierTail(e)}
	case "+":
		p.tk.advance()
		return &plusNode{p.parseQuantifierTail(e)}
	default:
		return e
	}
}

func (p *parser) parseAtom() (astNode, error) {
	tok, ok, err := p.tk.peek()
	if err != nil {
		return nil, err
	}
	switch {
	case ok && tok == "(":
		p.tk.advance()
		inner, err := p.parseAlt()
		if err != nil {
			return nil, err
		}
		tok, ok, err := p.tk.peek()
		if err != nil {
			return nil, err
		}
		if !ok || tok != ")" {
			return nil, syntaxErrorf("syntax error: ')' missing")
		}
		p.tk.advance()
		return inner, nil
	case ok && tok == ".":
		p.tk.advance()
		return &anyNode{}, nil
	case ok && tok == "[":
		p.tk.advance()
		group, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		tok, ok, err := p.tk.peek()
		if err != nil {
			return nil, err
		}
		if !ok || tok != "]" {
			return nil, syntaxErrorf("syntax error: ']' missing")
		}
		p.tk.advance()
		return group, nil
	case ok && (!specialChars[tok[0]] || len(tok) == 2):
		p.tk.advance()
		return &literalNode{literalByte(tok)}, nil
	default:
		if ok {
			return nil, syntaxErrorf("syntax error near %q", tok)
		}
		return nil, syntaxErrorf("syntax error: unexpected end of pattern")
	}
}

// parseGroup 解析 '[' 与 ']' 之间的内容:可选的开头 '^' 表示取反
// 随后是若干单字符或 'a-z' 区间 一直读到下一个 ']'。
func (p *parser) parseGroup() (astNode, error) {
	negate := false
	tok, ok, err := p.tk.peek()
	if err != nil {
		return nil, err
	}
	if ok && tok == "^" {
		negate = true
		p.tk.advance()
	}

	var members []byte
	for {
		tok, ok, err := p.tk.peek()
		if err != nil {
			return nil, err
		}
		if !ok || tok == "]" {
			break
		}
		lo := literalByte(tok)
		p.tk.advance()

		tok, ok, err = p.tk.peek()
		if err != nil {
			return nil, err
		}
		if ok && tok == "-" {
			p.tk.advance()
			tok, ok, err = p.tk.peek()
			if err != nil {
				return nil, err
			}
			if !ok || tok == "]" {
				// 组以孤立的 '-' 结尾,字面量处理
				members = append(members, lo, '-')
				continue
			}
			hi := literalByte(tok)
			p.tk.advance()
			if lo > hi {
				return nil, syntaxErrorf("bad character interval %q-%q", lo, hi)
			}
			for c := lo; ; c++ {
				members = append(members, c)
				if c == hi {
					break
				}
			}
			continue
		}
		members = append(members, lo)
	}
	if len(members) == 0 {
		return nil, syntaxErrorf("syntax error: empty character group")
	}
	return &groupNode{members: members, negate: negate}, nil
}

// --- AST 节点及其到 NFA 片段的编译 ---

type literalNode struct{ c byte }

func (n *literalNode) compile(b *builder) frag {
	final := b.newState(nil, nil, flagFinal)
	init := b.newState(final, nil, uint32(n.c))
	return frag{init, final}
}

type anyNode struct{}

func (n *anyNode) compile(b *builder) frag {
	final := b.newState(nil, nil, flagFinal)
	init := b.newState(final, nil, flagAny)
	return frag{init, final}
}

// groupNode 是 [...] / [^...] 字符组:按原型的做法展开为一条条独立的
// 单字符转移 以 epsilon 分支并联起来 而不是单条带位图的转移 —— 这与
// stepregexp.py 的 TokenGroup.compile 保持一致 便于直接对照验证。
type groupNode struct {
	members []byte
	negate  bool
}

func (n *groupNode) compile(b *builder) frag {
	set := n.members
	if n.negate {
		excluded := make([]bool, 256)
		for _, c := range n.members {
			excluded[c] = true
		}
		set = set[:0]
		for i := 0; i < 256; i++ {
			if !excluded[i] {
				set = append(set, byte(i))
			}
		}
	}

	final := b.newState(nil, nil, flagFinal)
	init := b.newState(final, nil, uint32(set[0]))
	for _, c := range set[1:] {
		final.t = flagEpsilon
		final2 := b.newState(nil, nil, flagFinal)
		state := b.newState(final2, nil, uint32(c))
		init = b.newState(state, init, flagEpsilon)
		final.next1 = final2
		final = final2
	}
	return frag{init, final}
}

type concatNode struct{ e1, e2 astNode }

func (n *concatNode) compile(b *builder) frag {
	f1 := n.e1.compile(b)
	f2 := n.e2.compile(b)
	f1.final.t = f2.init.t
	f1.final.next1 = f2.init.next1
	f1.final.next2 = f2.init.next2
	return frag{f1.init, f2.final}
}

type altNode struct{ e1, e2 astNode }

func (n *altNode) compile(b *builder) frag {
	f1 := n.e1.compile(b)
	f2 := n.e2.compile(b)
	init := b.newState(f1.init, f2.init, flagEpsilon)
	f1.final.t = flagEpsilon
	f1.final.next1 = f2.final
	return frag{init, f2.final}
}

type optionNode struct{ e astNode }

func (n *optionNode) compile(b *builder) frag {
	f := n.e.compile(b)
	init := b.newState(f.init, f.final, flagEpsilon)
	return frag{init, f.final}
}

type starNode struct{ e astNode }

func (n *starNode) compile(b *builder) frag {
	f := n.e.compile(b)
	final := b.newState(nil, nil, flagFinal)
	init := b.newState(f.init, final, flagEpsilon)
	f.final.t = flagEpsilon
	f.final.next1 = final
	f.final.next2 = f.init
	return frag{init, final}
}

type plusNode struct{ e astNode }

func (n *plusNode) compile(b *builder) frag {
	f := n.e.compile(b)
	final := b.newState(nil, nil, flagFinal)
	f.final.t = flagEpsilon
	f.final.next1 = f.init
	f.final.next2 = final
	return frag{f.init, final}
}
