// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package similartext builds "maybe you mean X?" suggestion strings for
// unresolved column, table, and model names. Used by the catalog to attach
// hints to missing and extra column mismatches, which the drift passes carry
// into their diagnostics, the same way the teacher's catalog reports an
// unknown database name.
package similartext

import (
	"fmt"
	"sort"
	"strings"
)

// maxDistance bounds how different a candidate may be from the target
// before it's no longer considered "similar".
const maxDistance = 3

// Find returns a ", maybe you mean X?" (or "X or Y?") suffix for the
// closest matches to name among names, or "" if name is empty or nothing
// is close enough.
func Find(names []string, name string) string {
	if name == "" {
		return ""
	}
	return format(closest(names, name))
}

// FindFromMap is Find over the keys of a map[string]T.
func FindFromMap[T any](m map[string]T, name string) string {
	if name == "" {
		return ""
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	return format(closest(names, name))
}

func format(matches []string) string {
	if len(matches) == 0 {
		return ""
	}
	if len(matches) == 1 {
		return fmt.Sprintf(", maybe you mean %s?", matches[0])
	}
	return fmt.Sprintf(", maybe you mean %s?", strings.Join(matches, " or "))
}

// closest returns every name within maxDistance of target, preferring an
// exact case-insensitive match when one exists, sorted for determinism.
func closest(names []string, target string) []string {
	lowerTarget := strings.ToLower(target)
	for _, n := range names {
		if strings.ToLower(n) == lowerTarget {
			return []string{n}
		}
	}

	type scored struct {
		name string
		dist int
	}
	var candidates []scored
	for _, n := range names {
		d := levenshtein(lowerTarget, strings.ToLower(n))
		if d <= maxDistance {
			candidates = append(candidates, scored{n, d})
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].name < candidates[j].name
	})

	best := candidates[0].dist
	var out []string
	for _, c := range candidates {
		if c.dist == best {
			out = append(out, c.name)
		}
	}
	return out
}

// levenshtein computes the classic edit distance between a and b.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}
