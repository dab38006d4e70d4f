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

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// dstate 是惰性构造出来的一个 DFA 状态。trans 按字节索引缓存后继状态
// ndstates 是它对应的(已排序的)NFA 状态集合 —— 子集构造的"子集"本身
// left/right 把所有已构造出的状态组织成一棵按 ndstates 排序的二叉搜索树
// 这是状态去重的事实来源:两个 DFA 状态相同 当且仅当它们的 NFA 状态集合
// 相同。
type dstate struct {
	trans    [256]*dstate
	final    bool
	ndstates []*ndState
	left     *dstate
	right    *dstate
}

// cmpStateSets 给两个(已按 id 排序的)NFA 状态集合一个确定的全序
// 用于在 BST 中定位插入点 对应原型里 cmp(l, node.ndstates) 的角色。
func cmpStateSets(a, b []*ndState) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i].id != b[i].id {
			if a[i].id < b[i].id {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func hashStateSet(ids []*ndState) uint64 {
	buf := make([]byte, 8*len(ids))
	for i, s := range ids {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(s.id))
	}
	return xxhash.Sum64(buf)
}

// dfaCache 是所有已构造 DFA 状态的去重索引。root 是精确的 BST
// (spec 描述的"按排序后的 NFA 状态集合身份去重"的事实来源);byHash
// 是按 xxhash 分桶的加速路径,命中时仍用 cmpStateSets 做一次精确比较
// 以防哈希碰撞 —— BST 不会因为加速路径命中而被跳过插入。
type dfaCache struct {
	root   *dstate
	byHash map[uint64][]*dstate
}

func newDFACache(begin *dstate) *dfaCache {
	c := &dfaCache{root: begin, byHash: make(map[uint64][]*dstate)}
	c.indexHash(begin)
	return c
}

func (c *dfaCache) indexHash(s *dstate) {
	h := hashStateSet(s.ndstates)
	c.byHash[h] = append(c.byHash[h], s)
}

// lookupOrInsert 返回与 l 对应的 DFA 状态:如果已经存在(BST 中存在一个
// 具有相同 NFA 状态集合的节点)就复用它 否则构造一个新状态 把它同时
// 插入 BST 与哈希索引。
func (c *dfaCache) lookupOrInsert(l []*ndState, final bool) *dstate {
	h := hashStateSet(l)
	for _, cand := range c.byHash[h] {
		if cmpStateSets(l, cand.ndstates) == 0 {
			return cand
		}
	}

	node := &dstate{ndstates: l, final: final}
	if c.root == nil {
		c.root = node
		c.indexHash(node)
		return node
	}

	cur := c.root
	for {
		switch cmpStateSets(l, cur.ndstates) {
		case 0:
			// 理论上不会发生(哈希路径已经覆盖了精确匹配) 但保持
			// BST 作为事实来源时仍要正确处理这一分支。
			return cur
		case -1:
			if cur.left == nil {
				cur.left = node
				c.indexHash(node)
				return node
			}
			cur = cur.left
		default:
			if cur.right == nil {
				cur.right = node
				c.indexHash(node)
				return node
			}
			cur = cur.right
		}
	}
}

// sortStates 返回按 id 升序排序的状态集合副本 用作子集构造中集合的
// 规范形式(NFA 状态集合的顺序不影响语义 但必须规范化才能比较身份)。
func sortStates(states []*ndState) []*ndState {
	out := append([]*ndState(nil), states...)
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
