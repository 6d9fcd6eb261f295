package gosharepoint

import (
	"context"
	"encoding/json"
)

type sourceInfo struct {
	List string `json:"list"`
	URL  string `json:"url"`
}

// resolveMerge retrieves every merge target in sequence and unions all
// rows into one slice: the initiating list's rows first, then each
// target's in supplied order. Every row is tagged with a provenance
// field recording its source list and site URL. Merge is a pure union;
// nothing is deduplicated.
//
// Targets are fetched sequentially, not concurrently: accumulation
// order and provenance tagging depend on deterministic completion
// order, and sequencing bounds memory.
func (l *List) resolveMerge(ctx context.Context, items []Record, targets []MergeTarget) ([]Record, error) {
	out := make([]Record, 0, len(items))
	out = append(out, tagSource(items, l.id, l.siteURL.String())...)
	for i := range targets {
		target := &targets[i]
		if target.List == "" {
			return nil, &SPError{
				Number:  ErrCodeInvalidMergeSpec,
				Message: "merge target is missing a list",
			}
		}
		targetList := l.client.listAt(target.List, l.resolveSiteURL(target.URL))
		res, err := targetList.GetItems(ctx, &target.Request)
		if err != nil {
			return nil, err
		}
		out = append(out, tagSource(res.Items, target.List, targetList.siteURL.String())...)
	}
	return out, nil
}

// tagSource sets the provenance field on every record. An existing tag
// (from a nested merge) is overwritten by the outermost one.
func tagSource(items []Record, list, url string) []Record {
	tag, err := json.Marshal(sourceInfo{List: list, URL: url})
	if err != nil {
		return items
	}
	for _, item := range items {
		item.Set(SourceField, string(tag))
	}
	return items
}
