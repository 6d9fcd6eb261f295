package gosharepoint

import (
	"time"
)

// defaultPageCount bounds the number of continuation rounds a paged
// request follows when Request.PageCount is not set.
const defaultPageCount = 5000

// defaultPageSize is the row limit compiled into paged requests when
// neither the Request nor the Config sets one.
const defaultPageSize = 5000

// ProgressFunc reports round progress. For filter-split requests it is
// called with (completed rounds, total rounds); for paged requests it
// is called with (rows loaded, 0) at each page boundary, 0 standing
// for "total unknown".
type ProgressFunc func(completed, total int)

// Request is one declarative list query.
type Request struct {
	// Fields is the set of fields to retrieve. Duplicates are ignored.
	// Empty means "whatever the service returns by default".
	Fields []string

	// Where holds the filter, either one expression or an ordered
	// sequence of alternatives each run as an independent round (the
	// usual workaround for the service's throttling limits). Entries
	// are in the SQL-like dialect of TranslateFilter unless WhereCAML
	// is set.
	Where     []string
	WhereCAML bool
	// NoEscapeChar disables XML-escaping of filter values during
	// translation.
	NoEscapeChar bool

	OrderBy string // "Field ASC,Other DESC"
	GroupBy string // comma-separated field names

	// UseIndexForOrderBy adds the index hint attributes to the sort
	// block (throttling workaround on large lists).
	UseIndexForOrderBy bool

	// RowLimit caps the rows of one round. 0 means the configured page
	// size when paging, otherwise no client-side cap.
	RowLimit int

	// Paging follows continuation tokens until the data or the
	// PageCount budget is exhausted.
	Paging    bool
	PageCount int

	// NextPageToken resumes a previous retrieval at the given
	// continuation token.
	NextPageToken string

	// View merges a named view's fields, sort and filter into the
	// request. BypassViewCache forces a fresh metadata lookup.
	View            string
	BypassViewCache bool

	ExpandUserField bool
	DateInUTC       bool

	// ShowListInAttribute prefixes every decoded field name with the
	// list alias.
	ShowListInAttribute bool
	// Alias overrides the list ID as prefix for joins and
	// ShowListInAttribute.
	Alias string

	Folder *FolderOptions

	Calendar        bool
	CalendarOptions *CalendarOptions

	// QueryOptions replaces the compiled options block with a raw XML
	// fragment.
	QueryOptions string

	Join  *JoinSpec
	Merge []MergeTarget

	Progress ProgressFunc
}

// JoinSpec describes an indexed client-side join with a second list.
type JoinSpec struct {
	List string
	// URL optionally points the target list at another site, resolved
	// against the current site URL.
	URL string
	// On is the join predicate: "'Parent'.Field = 'Child'.Field",
	// multiple pairs combined with AND.
	On string
	// OnLookup is a shortcut for the common case of a child lookup
	// field pointing at the parent's ID; it also enables the IN-filter
	// push-down on the child retrieval.
	OnLookup string
	// Outer emits parent rows that found no match, with the child
	// fields absent.
	Outer bool
	// Request describes what to fetch from the target list. Nested
	// joins and merges go through Request.Join and Request.Merge.
	Request Request
}

// MergeTarget names another list whose rows are unioned into the
// result.
type MergeTarget struct {
	List    string
	URL     string
	Request Request
}

// FolderShow selects which items a folder-scoped query returns.
type FolderShow int

const (
	// FilesAndFoldersInFolder returns files and subfolders of the
	// folder itself. This is the default.
	FilesAndFoldersInFolder FolderShow = iota
	// FilesOnlyRecursive returns files of the folder and all
	// subfolders.
	FilesOnlyRecursive
	// FilesAndFoldersRecursive returns everything under the folder.
	FilesAndFoldersRecursive
	// FilesOnlyInFolder returns only the files of the folder itself.
	FilesOnlyInFolder
)

// FolderOptions scopes the query to a folder of a document library.
type FolderOptions struct {
	// Path is the folder path relative to the library root.
	Path string
	Show FolderShow
	// RootFolder is the library's root folder path. When empty it is
	// resolved through the list metadata.
	RootFolder string
}

// CalendarRange selects the window of a calendar expansion.
type CalendarRange int

const (
	// CalendarMonth expands recurrences over the month of the
	// reference date. This is the default.
	CalendarMonth CalendarRange = iota
	// CalendarWeek expands recurrences over the week of the reference
	// date.
	CalendarWeek
	// CalendarDay expands recurrences over the reference day.
	CalendarDay
)

// CalendarOptions control recurring-event expansion.
type CalendarOptions struct {
	// SplitRecurrence expands each occurrence of a recurring event
	// into its own row.
	SplitRecurrence bool
	// ReferenceDate anchors the expansion window. Zero means now.
	ReferenceDate time.Time
	Range         CalendarRange
}

// SourceField is the provenance field added to every row of a merged
// result.
const SourceField = "Source"

// Result is the accumulated row set of one GetItems call.
type Result struct {
	Items []Record
	// NextPageToken is non-empty only when the service reported more
	// rows beyond the last round. Pass it back through
	// Request.NextPageToken to resume.
	NextPageToken string
}
