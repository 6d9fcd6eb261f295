package gosharepoint

import (
	"strconv"
	"strings"
)

// compileGetItemsBody assembles the inner SOAP body of one GetListItems
// round. It is a pure function of its inputs: compiling the same
// normalized request twice yields byte-identical documents.
func compileGetItemsBody(n *normalizedRequest, whereCAML, pageToken string) string {
	var b strings.Builder
	b.WriteString("<listName>" + xmlEscape(n.listID) + "</listName>")
	b.WriteString("<viewName></viewName>")
	b.WriteString("<query><Query>")
	b.WriteString(compileWhere(whereCAML, n.calendar, n.calOpts))
	b.WriteString(compileGroupBy(n.groupBy))
	b.WriteString(compileOrderBy(n.orderBy, n.useIndexForOrderBy))
	b.WriteString("</Query></query>")
	b.WriteString(`<viewFields><ViewFields Properties="True">`)
	b.WriteString(compileFieldRefs(n.fields))
	b.WriteString("</ViewFields></viewFields>")
	rowLimit := n.rowLimit
	if n.paging && rowLimit < 1 {
		rowLimit = 1
	}
	b.WriteString("<rowLimit>" + strconv.Itoa(rowLimit) + "</rowLimit>")
	b.WriteString("<queryOptions><QueryOptions>")
	b.WriteString(compileQueryOptions(n, pageToken))
	b.WriteString("</QueryOptions></queryOptions>")
	return b.String()
}

func compileFieldRefs(fields []string) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(`<FieldRef Name="` + f + `" />`)
	}
	return b.String()
}

// compileWhere emits the filter block, combining the calendar overlap
// clause with the regular filter when both apply. An empty filter
// yields no <Where> block at all: the service treats an empty block as
// an error in some farm configurations.
func compileWhere(whereCAML string, calendar bool, calOpts *CalendarOptions) string {
	inner := whereCAML
	if calendar {
		overlap := calendarOverlapClause(calOpts)
		if inner != "" {
			inner = "<And>" + inner + overlap + "</And>"
		} else {
			inner = overlap
		}
	}
	if inner == "" {
		return ""
	}
	return "<Where>" + inner + "</Where>"
}

func calendarOverlapClause(calOpts *CalendarOptions) string {
	rangeTag := "Month"
	if calOpts != nil {
		switch calOpts.Range {
		case CalendarWeek:
			rangeTag = "Week"
		case CalendarDay:
			rangeTag = "Day"
		}
	}
	return `<DateRangesOverlap>` +
		`<FieldRef Name="EventDate" />` +
		`<FieldRef Name="EndDate" />` +
		`<FieldRef Name="RecurrenceID" />` +
		`<Value Type="DateTime"><` + rangeTag + ` /></Value>` +
		`</DateRangesOverlap>`
}

func compileOrderBy(orderBy string, useIndex bool) string {
	if orderBy == "" {
		return ""
	}
	var clauses strings.Builder
	for _, part := range strings.Split(orderBy, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		ascending := "TRUE"
		if len(fields) > 1 && strings.EqualFold(fields[1], "DESC") {
			ascending = "FALSE"
		}
		clauses.WriteString(`<FieldRef Name="` + fields[0] + `" Ascending="` + ascending + `" />`)
	}
	attrs := ""
	if useIndex {
		// SP2010 throttling workaround
		attrs = ` UseIndexForOrderBy="TRUE" Override="TRUE"`
	}
	return "<OrderBy" + attrs + ">" + clauses.String() + "</OrderBy>"
}

func compileGroupBy(groupBy string) string {
	if groupBy == "" {
		return ""
	}
	var fields strings.Builder
	for _, part := range strings.Split(groupBy, ",") {
		fields.WriteString(`<FieldRef Name="` + strings.TrimSpace(part) + `" />`)
	}
	return `<GroupBy Collapse="TRUE">` + fields.String() + "</GroupBy>"
}

func compileQueryOptions(n *normalizedRequest, pageToken string) string {
	if n.rawQueryOptions != "" {
		return n.rawQueryOptions
	}
	var b strings.Builder
	b.WriteString("<DateInUtc>" + spBool(n.dateInUTC) + "</DateInUtc>")
	b.WriteString(`<Paging ListItemCollectionPositionNext="` + pageToken + `" />`)
	b.WriteString("<IncludeAttachmentUrls>True</IncludeAttachmentUrls>")
	if len(n.fields) > 0 {
		b.WriteString("<IncludeMandatoryColumns>False</IncludeMandatoryColumns>")
	}
	b.WriteString("<ExpandUserField>" + spBool(n.expandUserField) + "</ExpandUserField>")
	if n.folder != nil {
		if scope := folderScope(n.folder.Show); scope != "" {
			b.WriteString(`<ViewAttributes Scope="` + scope + `"/>`)
		}
		if n.folder.Path != "" {
			root := strings.TrimSuffix(n.folder.RootFolder, "/")
			b.WriteString("<Folder>" + root + "/" + strings.Trim(n.folder.Path, "/") + "</Folder>")
		}
	} else {
		b.WriteString(`<ViewAttributes Scope="Recursive"/>`)
	}
	if n.calendar {
		b.WriteString("<CalendarDate>" + n.calOpts.ReferenceDate.Format("2006-01-02") + "</CalendarDate>")
		b.WriteString("<RecurrencePatternXMLVersion>v3</RecurrencePatternXMLVersion>")
		expand := "FALSE"
		if n.calOpts.SplitRecurrence {
			expand = "TRUE"
		}
		b.WriteString("<ExpandRecurrence>" + expand + "</ExpandRecurrence>")
	}
	return b.String()
}

func folderScope(show FolderShow) string {
	switch show {
	case FilesAndFoldersRecursive:
		return "RecursiveAll"
	case FilesOnlyRecursive:
		return "Recursive"
	case FilesOnlyInFolder:
		return "FilesOnly"
	}
	return ""
}

func spBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
