package gosharepoint

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestParseOnClause(t *testing.T) {
	pairs, err := parseOnClause("'Orders'.CustomerID = 'Customers'.ID")
	assertNilF(t, err)
	assertEqualF(t, len(pairs), 1)
	assertEqualE(t, pairs[0].leftAlias, "Orders")
	assertEqualE(t, pairs[0].leftField, "CustomerID")
	assertEqualE(t, pairs[0].rightAlias, "Customers")
	assertEqualE(t, pairs[0].rightField, "ID")

	pairs, err = parseOnClause("'a'.X = 'b'.X and 'a'.Y = 'b'.Y")
	assertNilF(t, err)
	assertEqualF(t, len(pairs), 2)
	assertEqualE(t, pairs[1].leftField, "Y")

	_, err = parseOnClause("Orders.CustomerID = Customers.ID")
	assertNotNilF(t, err)
	var spErr *SPError
	assertErrorsAsF(t, err, &spErr)
	assertEqualE(t, spErr.Number, ErrCodeInvalidJoinSpec)
}

func TestSideFields(t *testing.T) {
	pairs, err := parseOnClause("'a'.X = 'b'.P AND 'a'.Y = 'b'.Q")
	assertNilF(t, err)

	left, err := sideFields(pairs, "a")
	assertNilF(t, err)
	assertDeepEqualE(t, left, []string{"X", "Y"})

	right, err := sideFields(pairs, "b")
	assertNilF(t, err)
	assertDeepEqualE(t, right, []string{"P", "Q"})

	_, err = sideFields(pairs, "c")
	assertNotNilF(t, err)
}

func testRecord(kv ...string) Record {
	rec := Record{}
	for i := 0; i+1 < len(kv); i += 2 {
		rec.Set(kv[i], kv[i+1])
	}
	return rec
}

func TestJoinKey(t *testing.T) {
	rec := testRecord("A", "1", "B", "x")
	key, ok := joinKey(rec, []string{"A", "B"}, "p")
	assertTrueF(t, ok)
	assertEqualE(t, key, "_1_x")

	// compound lookup values reduce to the ID
	rec = testRecord("A", "15;#Paul")
	key, ok = joinKey(rec, []string{"A"}, "p")
	assertTrueF(t, ok)
	assertEqualE(t, key, "_15")

	// alias-prefixed keys are found too
	rec = testRecord("p.A", "7")
	key, ok = joinKey(rec, []string{"A"}, "p")
	assertTrueF(t, ok)
	assertEqualE(t, key, "_7")

	// any empty part excludes the record from the join
	rec = testRecord("A", "1")
	_, ok = joinKey(rec, []string{"A", "B"}, "p")
	assertFalseE(t, ok)
}

func TestJoinIndexMergeInner(t *testing.T) {
	parents := []Record{
		testRecord("ID", "1", "Name", "alice"),
		testRecord("ID", "2", "Name", "bob"),
	}
	children := []Record{
		testRecord("PID", "1", "Item", "a"),
		testRecord("PID", "1", "Item", "b"),
		testRecord("PID", "3", "Item", "c"),
	}
	idx := buildJoinIndex(parents, []string{"ID"}, "p", false)
	out := idx.merge(children, []string{"PID"}, "c")
	assertEqualF(t, len(out), 2)
	assertEqualE(t, out[0].Value("p.Name"), "alice")
	assertEqualE(t, out[0].Value("c.Item"), "a")
	assertEqualE(t, out[1].Value("c.Item"), "b")
}

func TestJoinIndexMergeOuter(t *testing.T) {
	parents := []Record{
		testRecord("ID", "1", "Name", "alice"),
		testRecord("ID", "2", "Name", "bob"),
	}
	children := []Record{
		testRecord("PID", "1", "Item", "a"),
		testRecord("PID", "1", "Item", "b"),
		testRecord("PID", "3", "Item", "c"),
	}
	idx := buildJoinIndex(parents, []string{"ID"}, "p", true)
	out := idx.merge(children, []string{"PID"}, "c")
	assertEqualF(t, len(out), 3)
	assertEqualE(t, out[0].Value("c.Item"), "a")
	assertEqualE(t, out[1].Value("c.Item"), "b")
	// the unmatched parent follows with no child fields
	assertEqualE(t, out[2].Value("p.Name"), "bob")
	_, ok := out[2]["c.Item"]
	assertFalseE(t, ok)
}

func TestJoinIndexMergeExcludesEmptyKeys(t *testing.T) {
	parents := []Record{
		testRecord("ID", "1", "Name", "alice"),
		testRecord("Name", "no-id"),
	}
	children := []Record{
		testRecord("PID", "1", "Item", "a"),
		testRecord("Item", "orphan"),
	}
	idx := buildJoinIndex(parents, []string{"ID"}, "p", true)
	out := idx.merge(children, []string{"PID"}, "c")
	// the keyless parent and child both drop out, even from the outer side
	assertEqualF(t, len(out), 1)
	assertEqualE(t, out[0].Value("p.Name"), "alice")
}

func TestApplyJoinPushdown(t *testing.T) {
	req := &Request{}
	applyJoinPushdown(req, "Lkp", []string{"1", "2", "3"})
	assertEqualF(t, len(req.Where), 1)
	assertEqualE(t, req.Where[0], `(Lkp IN ["~1","~2","~3"])`)
	assertFalseE(t, req.Paging)
}

func TestApplyJoinPushdownCombinesExistingFilter(t *testing.T) {
	req := &Request{Where: []string{`Status = "Open"`, `Status = "Closed"`}}
	applyJoinPushdown(req, "Lkp", []string{"7"})
	assertEqualF(t, len(req.Where), 2)
	assertEqualE(t, req.Where[0], `((Lkp IN ["~7"])) AND (Status = "Open")`)
	assertEqualE(t, req.Where[1], `((Lkp IN ["~7"])) AND (Status = "Closed")`)
}

func TestApplyJoinPushdownChunks(t *testing.T) {
	ids := make([]string, maxJoinInValues+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", i+1)
	}
	req := &Request{}
	applyJoinPushdown(req, "Lkp", ids)
	assertEqualF(t, len(req.Where), 1)
	// two fragments OR-combined
	assertEqualE(t, strings.Count(req.Where[0], "Lkp IN ["), 2)
	assertStringContainsE(t, req.Where[0], `) OR (`)
}

func TestApplyJoinPushdownOverflowForcesPaging(t *testing.T) {
	ids := make([]string, maxJoinInValues*maxJoinInFragments+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", i+1)
	}
	req := &Request{Where: []string{"ID > 0"}}
	applyJoinPushdown(req, "Lkp", ids)
	// the filter is dropped entirely and paging forced instead
	assertDeepEqualE(t, req.Where, []string{"ID > 0"})
	assertTrueE(t, req.Paging)
}

func TestGetItemsJoinOnLookup(t *testing.T) {
	client, rt := newRecordingClient(t,
		listItemsResponse("",
			`<z:row ows_ID="1" ows_Name="alice" />`,
			`<z:row ows_ID="2" ows_Name="bob" />`),
		listItemsResponse("",
			`<z:row ows_ID="10" ows_Parent="1;#alice" ows_Item="a" />`,
			`<z:row ows_ID="11" ows_Parent="1;#alice" ows_Item="b" />`))
	res, err := client.List("Parents").GetItems(context.Background(), &Request{
		Fields: []string{"ID", "Name"},
		Join: &JoinSpec{
			List:     "Children",
			OnLookup: "Parent",
			Request:  Request{Fields: []string{"ID", "Item"}},
		},
	})
	assertNilF(t, err)
	assertEqualF(t, len(rt.bodies), 2)
	assertStringContainsE(t, rt.bodies[1], "<listName>Children</listName>")
	// the child round is narrowed to the parent IDs via a lookup IN filter
	assertStringContainsE(t, rt.bodies[1], `<FieldRef Name="Parent" LookupId="TRUE"/>`)
	assertStringContainsE(t, rt.bodies[1], `<Value Type="Integer">1</Value>`)
	assertStringContainsE(t, rt.bodies[1], `<Value Type="Integer">2</Value>`)
	// the lookup field is forced into the child field set
	assertStringContainsE(t, rt.bodies[1], `<FieldRef Name="Parent" />`)

	assertEqualF(t, len(res.Items), 2)
	assertEqualE(t, res.Items[0].Value("Parents.Name"), "alice")
	assertEqualE(t, res.Items[0].Value("Children.Item"), "a")
	assertEqualE(t, res.Items[1].Value("Children.Item"), "b")
}

func TestGetItemsJoinOuterKeepsUnmatchedParents(t *testing.T) {
	client, _ := newRecordingClient(t,
		listItemsResponse("",
			`<z:row ows_ID="1" ows_Name="alice" />`,
			`<z:row ows_ID="2" ows_Name="bob" />`),
		listItemsResponse("",
			`<z:row ows_ID="10" ows_Parent="1;#alice" ows_Item="a" />`))
	res, err := client.List("Parents").GetItems(context.Background(), &Request{
		Join: &JoinSpec{
			List:     "Children",
			OnLookup: "Parent",
			Outer:    true,
			Request:  Request{Fields: []string{"Item"}},
		},
	})
	assertNilF(t, err)
	assertEqualF(t, len(res.Items), 2)
	assertEqualE(t, res.Items[0].Value("Children.Item"), "a")
	assertEqualE(t, res.Items[1].Value("Parents.Name"), "bob")
	_, ok := res.Items[1]["Children.Item"]
	assertFalseE(t, ok)
}

func TestGetItemsJoinEmptyParentSkipsChildRound(t *testing.T) {
	client, rt := newRecordingClient(t, listItemsResponse(""))
	res, err := client.List("Parents").GetItems(context.Background(), &Request{
		Join: &JoinSpec{List: "Children", OnLookup: "Parent"},
	})
	assertNilF(t, err)
	assertEqualE(t, len(res.Items), 0)
	assertEqualE(t, len(rt.bodies), 1, "no child round for an empty parent set")
}

func TestGetItemsJoinInvalidSpec(t *testing.T) {
	client, rt := newRecordingClient(t)
	_, err := client.List("Parents").GetItems(context.Background(), &Request{
		Join: &JoinSpec{List: "Children"},
	})
	assertNotNilF(t, err)
	var spErr *SPError
	assertErrorsAsF(t, err, &spErr)
	assertEqualE(t, spErr.Number, ErrCodeInvalidJoinSpec)
	// spec problems surface before any network round
	assertEqualE(t, len(rt.bodies), 0)
}
