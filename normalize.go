package gosharepoint

import (
	"context"
	"strings"
	"time"
)

// normalizedRequest is a Request with every shortcut resolved: view
// fragments merged in, filters translated to CAML per round, calendar
// and folder defaults applied. The compiler works off this form only.
type normalizedRequest struct {
	listID string
	alias  string

	fields  []string
	rounds  []string // one CAML filter expression per retrieval round
	orderBy string
	groupBy string

	rowLimit   int
	paging     bool
	pageBudget int
	pageToken  string

	useIndexForOrderBy bool
	expandUserField    bool
	dateInUTC          bool

	// attrPrefix is the alias prepended to decoded field names, ""
	// when disabled.
	attrPrefix string

	folder   *FolderOptions
	calendar bool
	calOpts  *CalendarOptions

	rawQueryOptions string
}

// normalize resolves view, calendar and folder shortcuts into concrete
// filter, sort and field fragments.
func (l *List) normalize(ctx context.Context, req *Request) (*normalizedRequest, error) {
	if l.id == "" {
		return nil, ErrEmptyListID
	}
	alias := req.Alias
	if alias == "" {
		alias = l.id
	}
	n := &normalizedRequest{
		listID:             l.id,
		alias:              alias,
		fields:             unionFields(nil, req.Fields),
		orderBy:            req.OrderBy,
		groupBy:            req.GroupBy,
		useIndexForOrderBy: req.UseIndexForOrderBy,
		expandUserField:    req.ExpandUserField,
		dateInUTC:          req.DateInUTC,
		rawQueryOptions:    req.QueryOptions,
	}

	rounds, err := translateRounds(req.Where, req.WhereCAML, !req.NoEscapeChar)
	if err != nil {
		return nil, err
	}

	if req.View != "" {
		vd, err := l.resolveView(ctx, req.View, !req.BypassViewCache)
		if err != nil {
			return nil, err
		}
		n.fields = unionFields(n.fields, vd.Fields)
		if vd.OrderBy != "" {
			// user sort first, then the view's
			if n.orderBy != "" {
				n.orderBy = n.orderBy + "," + vd.OrderBy
			} else {
				n.orderBy = vd.OrderBy
			}
		}
		if vd.WhereCAML != "" {
			if len(rounds) == 0 {
				rounds = []string{vd.WhereCAML}
			} else {
				for i := range rounds {
					rounds[i] = "<And>" + rounds[i] + vd.WhereCAML + "</And>"
				}
			}
		}
	}
	if len(rounds) == 0 {
		rounds = []string{""}
	}
	n.rounds = rounds

	if req.Calendar {
		n.calendar = true
		if n.orderBy == "" {
			// expansion requires a fixed sort on the start date
			n.orderBy = "EventDate ASC"
		}
		calOpts := CalendarOptions{SplitRecurrence: true}
		if req.CalendarOptions != nil {
			calOpts = *req.CalendarOptions
		}
		if calOpts.ReferenceDate.IsZero() {
			calOpts.ReferenceDate = time.Now()
		}
		n.calOpts = &calOpts
	}

	if req.Folder != nil {
		folder := *req.Folder
		if folder.RootFolder == "" {
			info, err := l.Info(ctx)
			if err != nil {
				return nil, err
			}
			folder.RootFolder = info.RootFolder()
		}
		n.folder = &folder
	}

	n.rowLimit = req.RowLimit
	n.paging = req.Paging
	if n.paging {
		if n.rowLimit == 0 {
			n.rowLimit = l.client.cfg.PageSize
			if n.rowLimit == 0 {
				n.rowLimit = defaultPageSize
			}
		}
		n.pageBudget = req.PageCount
		if n.pageBudget <= 0 {
			n.pageBudget = defaultPageCount
		}
	} else {
		n.pageBudget = 1
	}
	n.pageToken = escapePageToken(req.NextPageToken)

	if req.ShowListInAttribute {
		n.attrPrefix = alias
	}
	return n, nil
}

// translateRounds turns the user filter expressions into one CAML
// expression per retrieval round, in supplied order. Empty expressions
// are dropped.
func translateRounds(wheres []string, alreadyCAML, escape bool) ([]string, error) {
	var rounds []string
	for _, w := range wheres {
		if w == "" {
			continue
		}
		if alreadyCAML {
			rounds = append(rounds, w)
			continue
		}
		caml, err := TranslateFilter(w, escape)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, caml)
	}
	return rounds, nil
}

// unionFields appends the entries of more not already present,
// preserving first-seen order.
func unionFields(fields, more []string) []string {
	seen := make(map[string]bool, len(fields)+len(more))
	out := make([]string, 0, len(fields)+len(more))
	for _, f := range fields {
		if f != "" && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, f := range more {
		if f != "" && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

var tokenEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;")

// escapePageToken makes a raw continuation token safe for the paging
// attribute of the compiled options block.
func escapePageToken(token string) string {
	return tokenEscaper.Replace(token)
}
