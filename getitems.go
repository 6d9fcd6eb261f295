package gosharepoint

import (
	"context"
)

// GetItems retrieves list items for one declarative Request and
// returns the unified result. Row caps and throttling limits of the
// service are handled by splitting the retrieval into rounds: one per
// filter expression, and within a round one per continuation page.
// Joins and merges are resolved only after the base retrieval has
// fully completed.
func (l *List) GetItems(ctx context.Context, req *Request) (*Result, error) {
	ctx = context.WithValue(ctx, SPListIDKey, l.id)
	alias := req.Alias
	if alias == "" {
		alias = l.id
	}
	// spec problems of the whole request tree surface before the
	// first network round, not halfway through a retrieval
	if err := validateFederation(req, alias); err != nil {
		return nil, err
	}
	n, err := l.normalize(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := l.retrieve(ctx, n, req.Progress)
	if err != nil {
		return nil, err
	}
	if req.Join != nil {
		res.Items, err = l.resolveJoin(ctx, n.alias, res.Items, req.Join)
		if err != nil {
			return nil, err
		}
	}
	if len(req.Merge) > 0 {
		res.Items, err = l.resolveMerge(ctx, res.Items, req.Merge)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// retrieve drives the multi-round retrieval as an explicit accumulator
// loop: the outer loop walks the filter rounds in supplied order, the
// inner loop follows continuation tokens while the page budget lasts.
// A failure at any round aborts the whole call.
func (l *List) retrieve(ctx context.Context, n *normalizedRequest, progress ProgressFunc) (*Result, error) {
	totalRounds := len(n.rounds)
	items := []Record{}
	lastToken := ""
	budget := n.pageBudget
	token := n.pageToken
	for i, where := range n.rounds {
		for {
			body := compileGetItemsBody(n, where, token)
			raw, err := l.client.rest.postTo(ctx, l.siteURL, listsEndpoint, "GetListItems", buildSOAPEnvelope("GetListItems", body))
			if err != nil {
				return nil, err
			}
			rows, next, err := decodeListItems(raw, n.attrPrefix)
			if err != nil {
				return nil, err
			}
			items = append(items, rows...)
			lastToken = next
			if n.paging && budget > 1 && next != "" {
				budget--
				token = escapePageToken(next)
				if progress != nil && totalRounds == 1 {
					progress(len(items), 0)
				}
				continue
			}
			break
		}
		// page token never carries over into the next filter round
		token = ""
		if progress != nil && totalRounds > 1 {
			progress(i+1, totalRounds)
		}
	}
	// lastToken is surfaced even when paging was off: a caller may
	// choose to continue manually through Request.NextPageToken.
	return &Result{Items: items, NextPageToken: lastToken}, nil
}
