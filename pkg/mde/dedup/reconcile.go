package dedup

import (
	"sort"

	"github.com/jamesainslie/mde/pkg/mde/types"
)

// reconcile merges exact groups into the perceptual clusters their
// representatives joined, producing the final non-overlapping group set.
// A cluster that swallowed an exact group keeps the Perceptual tag even
// when the merged members are all byte-identical; consumers rely on
// the tag reflecting how the linkage was found, not what it implies.
// Exact groups no cluster consumed are emitted unchanged afterwards.
func (f *Finder) reconcile(exactGroups, clusters [][]string) []types.DuplicateGroup {
	repToGroup := make(map[string][]string, len(exactGroups))
	for _, group := range exactGroups {
		repToGroup[group[0]] = group
	}

	consumed := make(map[string]bool)
	var groups []types.DuplicateGroup

	for _, cluster := range clusters {
		var members []string
		for _, member := range cluster {
			if group, ok := repToGroup[member]; ok {
				members = append(members, group...)
				consumed[member] = true
			} else {
				members = append(members, member)
			}
		}

		members = sortUnique(members)
		if len(members) < 2 {
			continue
		}

		groups = append(groups, types.DuplicateGroup{
			Files:       members,
			Type:        types.Perceptual,
			WastedBytes: f.wastedBytes(members),
		})
	}

	for _, group := range exactGroups {
		if consumed[group[0]] {
			continue
		}
		groups = append(groups, types.DuplicateGroup{
			Files:       group,
			Type:        types.Exact,
			WastedBytes: f.wastedBytes(group),
		})
	}

	return groups
}

// wastedBytes sums the sizes of a group's removable members, i.e. all
// but the first.
func (f *Finder) wastedBytes(members []string) int64 {
	var n int64
	for _, path := range members[1:] {
		n += f.sizes[path]
	}
	return n
}

// sortUnique sorts paths lexicographically and removes exact repeats.
func sortUnique(paths []string) []string {
	sort.Strings(paths)
	out := paths[:0]
	for i, p := range paths {
		if i == 0 || p != paths[i-1] {
			out = append(out, p)
		}
	}
	return out
}
