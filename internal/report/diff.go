package report

import (
	"sort"
	"strings"

	"github.com/raysh454/crumb/internal/model"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// InventoryDiff lists cookie keys ("domain\tname") that appeared or
// disappeared between two scans.
type InventoryDiff struct {
	BaseID  string   `json:"baseId,omitempty"`
	HeadID  string   `json:"headId,omitempty"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// InventoryKeys returns the sorted, de-duplicated keys of cookies.
func InventoryKeys(cookies []model.Cookie) []string {
	keys := make([]string, 0, len(cookies))
	for _, c := range cookies {
		keys = append(keys, c.Key())
	}
	return normalizeKeys(keys)
}

// DiffSnapshots diffs the inventories of base and head. A nil base treats
// every head key as added.
func DiffSnapshots(base, head *model.ScanSnapshot) InventoryDiff {
	var baseInv, headInv []string
	var d InventoryDiff
	if base != nil {
		baseInv = base.Inventory
		d.BaseID = base.ID
	}
	if head != nil {
		headInv = head.Inventory
		d.HeadID = head.ID
	}
	diff := DiffInventories(baseInv, headInv)
	d.Added, d.Removed = diff.Added, diff.Removed
	return d
}

// DiffInventories computes a line-mode diff over the sorted key lists.
func DiffInventories(base, head []string) InventoryDiff {
	baseText := joinLines(normalizeKeys(base))
	headText := joinLines(normalizeKeys(head))

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(baseText, headText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	out := InventoryDiff{Added: []string{}, Removed: []string{}}
	for _, d := range diffs {
		var dst *[]string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			dst = &out.Added
		case diffmatchpatch.DiffDelete:
			dst = &out.Removed
		default:
			continue
		}
		for _, line := range strings.Split(d.Text, "\n") {
			if line != "" {
				*dst = append(*dst, line)
			}
		}
	}
	return out
}

func normalizeKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
