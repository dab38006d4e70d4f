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

package permute

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFact(t *testing.T) {
	require.Equal(t, uint64(1), Fact(0))
	require.Equal(t, uint64(1), Fact(1))
	require.Equal(t, uint64(2), Fact(2))
	require.Equal(t, uint64(6), Fact(3))
	require.Equal(t, uint64(120), Fact(5))
}

func TestEfficiency(t *testing.T) {
	// 4! = 24, floor(log2(24)) = 4
	require.Equal(t, 4, Efficiency(4))
	// 2! = 2, floor(log2(2)) = 1
	require.Equal(t, 1, Efficiency(2))
	// 1! = 1, floor(log2(1)) = 0
	require.Equal(t, 0, Efficiency(1))
	require.Equal(t, 0, Efficiency(0))
}

func TestUnrankRankRoundTrip(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	n := len(items)
	total := Fact(n)

	for x := uint64(0); x < total; x++ {
		perm := Unrank(x, items)
		require.Len(t, perm, n)
		got := Rank(perm, cmp.Compare[string])
		assert.Equal(t, x, got, "rank(unrank(%d)) should round-trip", x)
	}
}

func TestUnrankIsPermutation(t *testing.T) {
	items := []int{10, 20, 30, 40}
	perm := Unrank(7, items)
	require.ElementsMatch(t, items, perm)
}

func TestRankZeroForSortedInput(t *testing.T) {
	items := []int{1, 2, 3, 4}
	require.Equal(t, uint64(0), Rank(items, cmp.Compare[int]))
}
