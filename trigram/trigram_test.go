// Copyright 2024 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package trigram

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(m map[Tri]struct{}) []string {
	out := make([]string, 0, len(m))
	for t := range m {
		out = append(out, string(t[:]))
	}
	sort.Strings(out)
	return out
}

func TestTrigramsOf_SingleToken(t *testing.T) {
	got := TrigramsOf("abc")
	want := []string{"  a", " ab", "abc", "bc ", "c  "}
	assert.ElementsMatch(t, want, keys(got))
}

func TestTrigramsOf_Empty(t *testing.T) {
	assert.Empty(t, TrigramsOf(""))
	assert.Empty(t, TrigramsOf("   "))
}

func TestTrigramsOf_ShortToken(t *testing.T) {
	// A single-char token pads to "  a  ", which is length 5: 3 windows.
	got := TrigramsOf("a")
	assert.ElementsMatch(t, []string{"  a", " a ", "a  "}, keys(got))
}

func TestTrigramsOf_Normalizes(t *testing.T) {
	got := TrigramsOf("Ch0c0late!!  Moon")
	assert.Contains(t, got, Tri{'c', 'h', '0'})
	assert.Contains(t, got, Tri{'m', 'o', 'o'})
}

func TestPackUnpackRoundTrip(t *testing.T) {
	for _, tri := range []Tri{{0, 0, 0}, {'a', 'b', 'c'}, {255, 255, 255}} {
		pk := Pack(tri)
		require.Equal(t, tri, Unpack(pk))
	}
}

func TestRequiredOf_NoLiterals(t *testing.T) {
	assert.Empty(t, RequiredOf("%%"))
	assert.Empty(t, RequiredOf("%"))
	assert.Empty(t, RequiredOf(""))
}

func TestRequiredOf_PaddingByPosition(t *testing.T) {
	// "%abc%" -- both sides wildcarded, so no padding: "abc" -> one trigram.
	got := RequiredOf("%abc%")
	require.Len(t, got, 1)
	assert.Equal(t, Tri{'a', 'b', 'c'}, got[0])
}

func TestRequiredOf_LeftAnchored(t *testing.T) {
	// No leading '%': the segment is at the start of the pattern, so it is
	// padded on the left only when *not* preceded by a '%' -- here it isn't
	// preceded by anything, so leftPad is true.
	got := RequiredOf("abc%")
	var strs []string
	for _, tr := range got {
		strs = append(strs, string(tr[:]))
	}
	assert.Equal(t, []string{"  a", " ab", "abc"}, strs)
}

func TestRequiredOf_DedupPreservesFirstOccurrence(t *testing.T) {
	got := RequiredOf("%abcabc%")
	seen := map[Tri]int{}
	for _, tr := range got {
		seen[tr]++
	}
	for tr, n := range seen {
		assert.Equalf(t, 1, n, "trigram %v duplicated in required sequence", tr)
	}
}

func TestLiteralsAppearInOrder(t *testing.T) {
	cases := []struct {
		text    string
		pattern string
		want    bool
	}{
		{"chocolate moon", "%chocolate%mon%", false}, // no "mon" substring
		{"moon chocolate", "%chocolate%moon%", false},
		{"chocolate moon", "%chocolate%moon%", true},
		{"alpha beta gamma", "%alpha%gamma%", true},
		{"gamma beta alpha", "%alpha%gamma%", false},
	}
	for _, c := range cases {
		lits := Literals(c.pattern)
		got := LiteralsAppearInOrder(c.text, lits)
		assert.Equalf(t, c.want, got, "text=%q pattern=%q", c.text, c.pattern)
	}
}

func TestRequiredOf_SubsetOfTrigramsOfMatchingText(t *testing.T) {
	text := "chocolate moon"
	pattern := "%choc%moon%"
	req := RequiredOf(pattern)
	have := TrigramsOf(text)
	for _, tr := range req {
		assert.Containsf(t, have, tr, "trigram %v from pattern not found in text trigrams", tr)
	}
}
