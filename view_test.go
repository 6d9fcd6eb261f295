package gosharepoint

import (
	"context"
	"strings"
	"testing"
)

const viewCollectionBody = `<Views xmlns="http://schemas.microsoft.com/sharepoint/soap/">` +
	`<View Name="{V1}" DisplayName="All Items" />` +
	`<View Name="{V2}" DisplayName="Open Tasks" />` +
	`</Views>`

const viewBody = `<View Name="{V2}" xmlns="http://schemas.microsoft.com/sharepoint/soap/">` +
	`<Query>` +
	`<Where><Eq><FieldRef Name="Status"/><Value Type="Text">Open</Value></Eq></Where>` +
	`<OrderBy><FieldRef Name="Priority" /><FieldRef Name="Created" Ascending="FALSE" /></OrderBy>` +
	`</Query>` +
	`<ViewFields><FieldRef Name="Title" /><FieldRef Name="Status" /></ViewFields>` +
	`</View>`

func TestParseViewDetails(t *testing.T) {
	vd, err := parseViewDetails([]byte(viewBody))
	assertNilF(t, err)
	assertDeepEqualE(t, vd.Fields, []string{"Title", "Status"})
	assertEqualE(t, vd.OrderBy, "Priority ASC,Created DESC")
	assertEqualE(t, vd.WhereCAML,
		`<Eq><FieldRef Name="Status"/><Value Type="Text">Open</Value></Eq>`)
}

func TestResolveViewByDisplayName(t *testing.T) {
	client, rt := newRecordingClient(t, viewCollectionBody, viewBody)
	list := client.List("ViewTestTasks")
	vd, err := list.resolveView(context.Background(), "Open Tasks", true)
	assertNilF(t, err)
	assertEqualE(t, vd.ID, "{V2}")
	assertEqualF(t, len(rt.bodies), 2)
	assertStringContainsE(t, rt.bodies[1], "<viewName>{V2}</viewName>")

	// second resolution is served from the cache
	vd2, err := list.resolveView(context.Background(), "Open Tasks", true)
	assertNilF(t, err)
	assertEqualE(t, vd2, vd)
	assertEqualE(t, len(rt.bodies), 2)
}

func TestResolveViewByGUIDSkipsCollectionLookup(t *testing.T) {
	client, rt := newRecordingClient(t, viewBody)
	_, err := client.List("ViewTestGUID").resolveView(context.Background(), "{V2}", true)
	assertNilF(t, err)
	assertEqualF(t, len(rt.bodies), 1)
	assertStringContainsE(t, rt.bodies[0], "<viewName>{V2}</viewName>")
}

func TestResolveViewNotFound(t *testing.T) {
	client, _ := newRecordingClient(t, viewCollectionBody)
	_, err := client.List("ViewTestMissing").resolveView(context.Background(), "No Such View", true)
	assertNotNilF(t, err)
	var spErr *SPError
	assertErrorsAsF(t, err, &spErr)
	assertEqualE(t, spErr.Number, ErrCodeViewNotFound)
}

func TestGetItemsWithView(t *testing.T) {
	client, rt := newRecordingClient(t,
		viewCollectionBody,
		viewBody,
		listItemsResponse("", `<z:row ows_ID="1" ows_Title="x" />`))
	res, err := client.List("ViewTestGetItems").GetItems(context.Background(), &Request{
		Fields:  []string{"ID", "Title"},
		Where:   []string{"ID > 0"},
		OrderBy: "ID ASC",
		View:    "Open Tasks",
	})
	assertNilF(t, err)
	assertEqualF(t, len(rt.bodies), 3)
	body := rt.bodies[2]
	// view fields are unioned after the requested ones
	assertStringContainsE(t, body,
		`<FieldRef Name="ID" /><FieldRef Name="Title" /><FieldRef Name="Status" />`)
	// view filter is AND-combined with the user filter
	assertStringContainsE(t, body, "<Where><And><Gt>")
	assertStringContainsE(t, body,
		`<Eq><FieldRef Name="Status"/><Value Type="Text">Open</Value></Eq></And></Where>`)
	// user sort first, then the view's
	assertTrueE(t, strings.Index(body, `Name="ID" Ascending`) < strings.Index(body, `Name="Priority"`))
	assertEqualE(t, len(res.Items), 1)
}

func TestInnerXML(t *testing.T) {
	assertEqualE(t, innerXML("<a><Where>x</Where></a>", "Where"), "x")
	assertEmptyStringE(t, innerXML("<a></a>", "Where"))
	assertEmptyStringE(t, innerXML("<a><Where>x</a>", "Where"))
}
