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

// Pattern 是一个编译后的增量正则表达式。它一次只消费一个字节 通过
// Next 报告 PASS/ACCEPT/FAIL。DFA 在第一次需要某条转移时才被计算
// (惰性子集构造) 此后相同的(当前状态,字节)组合直接查表。
type Pattern struct {
	begin      *dstate
	current    *dstate
	cache      *dfaCache
	generation int64
	loose      bool
}

// Compile 把字符串形式的正则表达式编译为一个 Pattern。支持的语法见包文档:
// 字面字符 '.' '+' '*' '?' '|' 分组 '(' ')' 字符组 '[...]'/'[^...]'
// (含 'a-z' 区间) 以及反斜杠转义。
func Compile(expr string) (*Pattern, error) {
	ast, err := parsePattern(expr)
	if err != nil {
		return nil, err
	}
	b := &builder{}
	top := ast.compile(b)

	p := &Pattern{}
	closure, final := eclosure([]*ndState{top.init}, p.nextGeneration())
	sorted := sortStates(closure)
	begin := &dstate{ndstates: sorted, final: final}
	p.begin = begin
	p.current = begin
	p.cache = newDFACache(begin)
	return p, nil
}

func (p *Pattern) nextGeneration() int64 {
	p.generation++
	return p.generation
}

// Reset 把状态机恢复到初始状态 清除 Loose 锁定。
func (p *Pattern) Reset() {
	p.current = p.begin
	p.loose = false
}

// Next 向状态机喂入一个字节。一旦返回 Fail 状态机就锁定("loose")
// 后续所有调用都直接返回 Fail 直到调用 Reset。
func (p *Pattern) Next(c byte) Result {
	if p.loose {
		return Fail
	}

	if next := p.current.trans[c]; next != nil {
		p.current = next
		if next.final {
			return Accept
		}
		return Pass
	}

	var candidates []*ndState
	for _, s := range p.current.ndstates {
		if s.t&flagEpsilon != 0 {
			continue
		}
		if s.t&flagAny != 0 || uint32(c) == s.t&byteMask {
			candidates = append(candidates, s.next1)
		}
	}
	if len(candidates) == 0 {
		p.loose = true
		return Fail
	}

	closure, final := eclosure(candidates, p.nextGeneration())
	sorted := sortStates(closure)
	next := p.cache.lookupOrInsert(sorted, final)

	p.current.trans[c] = next
	p.current = next
	if next.final {
		return Accept
	}
	return Pass
}

// IsAccepted 报告状态机当前是否处于一个未被 loose 锁定的终结状态。
func (p *Pattern) IsAccepted() bool {
	return p.current.final && !p.loose
}
