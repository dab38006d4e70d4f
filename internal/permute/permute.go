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

// Package permute 实现排列的秩(rank)与反秩(unrank)映射 用于在一组
// 顺序无关紧要的元素(HTTP 头部行 HTML 标签属性)的相对排列中隐藏比特。
package permute

import "math/bits"

var factCache = []uint64{1}

// Fact 返回 n! 结果按需缓存
func Fact(n int) uint64 {
	for len(factCache) <= n {
		last := factCache[len(factCache)-1]
		factCache = append(factCache, last*uint64(len(factCache)))
	}
	return factCache[n]
}

// Efficiency 返回在 n 个元素的排列中可隐藏的比特数 floor(log2(n!))
func Efficiency(n int) int {
	f := Fact(n)
	if f == 0 {
		return 0
	}
	return bits.Len64(f) - 1
}

// Unrank 将整数 x 解码为 items 的某个排列 对应一个以阶乘进制表示的秩。
// items 的元素顺序即为编号 0..n-1 的基准序列 通常由调用方先排序/去重。
// 不修改 items 参数 返回一个新的切片。
func Unrank[T any](x uint64, items []T) []T {
	n := len(items)
	if n == 0 {
		return nil
	}
	x %= Fact(n)

	remaining := make([]T, n)
	copy(remaining, items)

	out := make([]T, 0, n)
	for i := n; i > 0; i-- {
		f := Fact(i - 1)
		q := x / f
		r := x % f
		out = append(out, remaining[q])
		remaining = append(remaining[:q], remaining[q+1:]...)
		x = r
	}
	return out
}

// Rank 是 Unrank 的逆运算:给定一个排列 list 返回它在 "以其排序后的副本
// 为基准序列" 的排列空间中的秩。cmp 用于在基准序列中定位当前元素
// 小于返回负数 等于返回 0 大于返回正数 与 slices.SortFunc 的约定一致。
func Rank[T any](list []T, cmp func(a, b T) int) uint64 {
	n := len(list)
	if n == 0 {
		return 0
	}

	sorted := make([]T, n)
	copy(sorted, list)
	insertionSort(sorted, cmp)

	var x uint64
	for i := 0; i < n; i++ {
		idx := indexOf(sorted, list[i], cmp)
		x += uint64(idx) * Fact(n-1-i)
		sorted = append(sorted[:idx], sorted[idx+1:]...)
	}
	return x
}

func insertionSort[T any](s []T, cmp func(a, b T) int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && cmp(s[j-1], s[j]) > 0; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func indexOf[T any](s []T, v T, cmp func(a, b T) int) int {
	for i, e := range s {
		if cmp(e, v) == 0 {
			return i
		}
	}
	return -1
}
