package gosharepoint

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Join push-down tuning: at most maxJoinInValues values per IN
// fragment, at most maxJoinInFragments OR-ed fragments. Beyond that
// the push-down filter is dropped and paging is forced on the child
// retrieval instead of risking an oversized query document.
const (
	maxJoinInValues    = 500
	maxJoinInFragments = 10
)

// joinFieldPair is one equality of an ON clause.
type joinFieldPair struct {
	leftAlias  string
	leftField  string
	rightAlias string
	rightField string
}

var reOnPair = regexp.MustCompile(`^\s*'([^']+)'\s*\.\s*([A-Za-z0-9_]+)\s*=\s*'([^']+)'\s*\.\s*([A-Za-z0-9_]+)\s*$`)

// parseOnClause parses "'<alias>'.<field> = '<alias>'.<field>"
// pairs combined with AND.
func parseOnClause(on string) ([]joinFieldPair, error) {
	parts := regexp.MustCompile(`(?i)\s+AND\s+`).Split(on, -1)
	pairs := make([]joinFieldPair, 0, len(parts))
	for _, part := range parts {
		m := reOnPair.FindStringSubmatch(part)
		if m == nil {
			return nil, invalidJoinSpecError(fmt.Sprintf("cannot parse ON clause %q", part))
		}
		pairs = append(pairs, joinFieldPair{
			leftAlias: m[1], leftField: m[2],
			rightAlias: m[3], rightField: m[4],
		})
	}
	return pairs, nil
}

// sideFields returns the fields of the pairs belonging to the given
// alias, one per pair, in pair order.
func sideFields(pairs []joinFieldPair, alias string) ([]string, error) {
	fields := make([]string, 0, len(pairs))
	for _, p := range pairs {
		switch alias {
		case p.leftAlias:
			fields = append(fields, p.leftField)
		case p.rightAlias:
			fields = append(fields, p.rightField)
		default:
			return nil, invalidJoinSpecError(fmt.Sprintf("ON clause references neither side as %q", alias))
		}
	}
	return fields, nil
}

// joinIndex holds one side of a join, keyed by the composite ON-pair
// key. keys preserves first-seen order so an outer join emits
// unmatched parents deterministically.
type joinIndex struct {
	byKey map[string][]Record
	keys  []string
	outer bool
}

// joinKey builds the composite key of a record under the given fields.
// Field values are looked up both alias-prefixed and bare; compound
// lookup values are reduced to their ID. A record with any empty key
// part cannot participate in the join and reports ok == false (strict
// exclusion).
func joinKey(rec Record, fields []string, alias string) (string, bool) {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v := rec.Value(alias + "." + f)
		if v == "" {
			v = rec.Value(f)
		}
		if id, ok := LookupID(v); ok {
			v = id
		}
		if v == "" {
			return "", false
		}
		parts = append(parts, v)
	}
	return "_" + strings.Join(parts, "_"), true
}

// buildJoinIndex indexes the parent rows by their ON-pair key. Parent
// field names are alias-prefixed on the way in so merged rows always
// carry disambiguated keys.
func buildJoinIndex(parent []Record, fields []string, alias string, outer bool) *joinIndex {
	idx := &joinIndex{byKey: make(map[string][]Record, len(parent)), outer: outer}
	for _, item := range parent {
		key, ok := joinKey(item, fields, alias)
		if !ok {
			continue
		}
		if _, seen := idx.byKey[key]; !seen {
			idx.keys = append(idx.keys, key)
		}
		idx.byKey[key] = append(idx.byKey[key], prefixRecord(item, alias))
	}
	return idx
}

// prefixRecord returns a copy of rec with every bare key prefixed by
// the alias. Keys already carrying a prefix are kept as-is.
func prefixRecord(rec Record, alias string) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		if !strings.Contains(k, ".") {
			k = alias + "." + k
		}
		out[k] = v
	}
	return out
}

// merge matches every child row against the index and emits one merged
// record per (parent, child) pair, child fields under the child alias.
// For an outer join, parents whose key never matched follow in
// first-seen order with the child fields absent.
func (idx *joinIndex) merge(children []Record, childFields []string, childAlias string) []Record {
	matched := make(map[string]bool, len(idx.keys))
	out := []Record{}
	for _, child := range children {
		key, ok := joinKey(child, childFields, childAlias)
		if !ok {
			continue
		}
		parents := idx.byKey[key]
		if len(parents) == 0 {
			continue
		}
		matched[key] = true
		for _, parent := range parents {
			m := make(Record, len(parent)+len(child))
			for k, v := range parent {
				m[k] = v
			}
			for k, v := range child {
				if !strings.Contains(k, ".") {
					k = childAlias + "." + k
				}
				m[k] = v
			}
			out = append(out, m)
		}
	}
	if idx.outer {
		for _, key := range idx.keys {
			if matched[key] {
				continue
			}
			out = append(out, idx.byKey[key]...)
		}
	}
	return out
}

// validateFederation checks the join and merge specs of a request
// tree up front.
func validateFederation(req *Request, alias string) error {
	if req.Join != nil {
		childAlias, pairs, err := resolveOnClause(req.Join, alias)
		if err != nil {
			return err
		}
		if _, err = sideFields(pairs, alias); err != nil {
			return err
		}
		if _, err = sideFields(pairs, childAlias); err != nil {
			return err
		}
		if err = validateFederation(&req.Join.Request, childAlias); err != nil {
			return err
		}
	}
	for i := range req.Merge {
		target := &req.Merge[i]
		if target.List == "" {
			return &SPError{
				Number:  ErrCodeInvalidMergeSpec,
				Message: "merge target is missing a list",
			}
		}
		targetAlias := target.Request.Alias
		if targetAlias == "" {
			targetAlias = target.List
		}
		if err := validateFederation(&target.Request, targetAlias); err != nil {
			return err
		}
	}
	return nil
}

// resolveOnClause determines the child alias and parses the join
// predicate, synthesizing it from the lookup shortcut when no ON
// clause was given.
func resolveOnClause(spec *JoinSpec, parentAlias string) (string, []joinFieldPair, error) {
	if spec.List == "" {
		return "", nil, invalidJoinSpecError("missing target list")
	}
	childAlias := spec.Request.Alias
	if childAlias == "" {
		childAlias = spec.List
	}
	on := spec.On
	if on == "" && spec.OnLookup != "" {
		// lookup shortcut: the child's lookup field points at the
		// parent's identity
		on = fmt.Sprintf("'%s'.%s = '%s'.ID", childAlias, spec.OnLookup, parentAlias)
	}
	if on == "" {
		return "", nil, invalidJoinSpecError("missing ON clause")
	}
	pairs, err := parseOnClause(on)
	if err != nil {
		return "", nil, err
	}
	return childAlias, pairs, nil
}

// resolveJoin retrieves the join target and merges it with the fully
// accumulated parent row set.
func (l *List) resolveJoin(ctx context.Context, parentAlias string, parent []Record, spec *JoinSpec) ([]Record, error) {
	childAlias, pairs, err := resolveOnClause(spec, parentAlias)
	if err != nil {
		return nil, err
	}
	parentFields, err := sideFields(pairs, parentAlias)
	if err != nil {
		return nil, err
	}
	childFields, err := sideFields(pairs, childAlias)
	if err != nil {
		return nil, err
	}

	if len(parent) == 0 {
		return []Record{}, nil
	}
	idx := buildJoinIndex(parent, parentFields, parentAlias, spec.Outer)

	childReq := spec.Request
	childReq.Alias = childAlias
	if spec.OnLookup != "" {
		ids := collectParentIDs(parent, parentAlias)
		if len(ids) == 0 {
			if spec.Outer {
				return idx.merge(nil, childFields, childAlias), nil
			}
			return []Record{}, nil
		}
		applyJoinPushdown(&childReq, spec.OnLookup, ids)
		if !containsField(childReq.Fields, spec.OnLookup) {
			childReq.Fields = append(childReq.Fields, spec.OnLookup)
		}
	}

	childList := l.client.listAt(spec.List, l.resolveSiteURL(spec.URL))
	childRes, err := childList.GetItems(ctx, &childReq)
	if err != nil {
		return nil, err
	}
	return idx.merge(childRes.Items, childFields, childAlias), nil
}

// collectParentIDs returns the distinct identity values of the parent
// rows, in first-seen order.
func collectParentIDs(parent []Record, alias string) []string {
	seen := make(map[string]bool, len(parent))
	ids := make([]string, 0, len(parent))
	for _, item := range parent {
		id := item.Value(alias + ".ID")
		if id == "" {
			id = item.Value("ID")
		}
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// applyJoinPushdown narrows the child retrieval to rows whose lookup
// field points at one of the parent identities. When the candidate set
// cannot be expressed safely, the filter is dropped and paging forced
// instead.
func applyJoinPushdown(childReq *Request, lookupField string, ids []string) {
	var fragments []string
	for start := 0; start < len(ids); start += maxJoinInValues {
		end := start + maxJoinInValues
		if end > len(ids) {
			end = len(ids)
		}
		values := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			values = append(values, `"~`+id+`"`)
		}
		fragments = append(fragments, lookupField+" IN ["+strings.Join(values, ",")+"]")
	}
	if len(fragments) > maxJoinInFragments {
		logger.Warnf("join push-down dropped: %v IN fragments exceed the limit. forcing paging on %v",
			len(fragments), lookupField)
		childReq.Paging = true
		return
	}
	pushdown := "(" + strings.Join(fragments, ") OR (") + ")"
	if len(childReq.Where) == 0 {
		childReq.Where = []string{pushdown}
	} else {
		combined := make([]string, len(childReq.Where))
		for i, w := range childReq.Where {
			combined[i] = "(" + pushdown + ") AND (" + w + ")"
		}
		childReq.Where = combined
	}
	childReq.WhereCAML = false
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
