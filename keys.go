package chunkcache

import (
	"fmt"
	"slices"
	"strconv"
)

// Key prefixes shared with every other writer of the same store. Changing
// them orphans existing entries.
const (
	EntryPrefix = "bte:cacheContent:"
	LockPrefix  = "bte:cachingLock:"
)

// EntryKey is the hash key holding the chunks for hash.
func EntryKey(hash string) string { return EntryPrefix + hash }

// LockKey is the lock resource guarding hash. Writers and readers must both
// derive it here.
func LockKey(hash string) string { return LockPrefix + hash }

// sortedValues orders chunk fields by numeric index. Field names must be
// exactly 0..n-1.
func sortedValues(fields map[string]string) ([]string, error) {
	type field struct {
		idx int
		val string
	}
	fs := make([]field, 0, len(fields))
	for name, v := range fields {
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidField, name)
		}
		fs = append(fs, field{idx: i, val: v})
	}
	slices.SortFunc(fs, func(a, b field) int { return a.idx - b.idx })

	out := make([]string, len(fs))
	for i, f := range fs {
		if f.idx != i {
			return nil, fmt.Errorf("%w: missing chunk %d", ErrIncompleteEntry, i)
		}
		out[i] = f.val
	}
	return out, nil
}
