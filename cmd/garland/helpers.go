package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// parseIDSelector expands a selector such as "3,7,10-14" into a sorted,
// deduplicated list of row ids.
func parseIDSelector(selector string) ([]int64, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, nil
	}

	seen := make(map[int64]struct{})
	for _, part := range strings.Split(selector, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid id range %q", part)
			}
			end, err := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid id range %q", part)
			}
			if end < start {
				return nil, fmt.Errorf("invalid id range %q", part)
			}
			for id := start; id <= end; id++ {
				seen[id] = struct{}{}
			}
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		seen[id] = struct{}{}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// parseOrderIDSelector splits a comma separated list of ShipStation order ids.
func parseOrderIDSelector(selector string) []string {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(selector, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
