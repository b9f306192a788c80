// Package pagination walks cursor-linked Okta collections lazily.
//
// Okta paginates with an HTTP Link header: each page carries a
// rel="next" relation pointing at the following page, and the last page
// omits it. The paginator exposes a collection as a Go iterator that
// fetches one page at a time, so consuming a prefix of the sequence
// never issues requests for later pages.
//
// Example usage:
//
//	paginator := pagination.New(tx, pagination.DefaultConfig(), logger)
//	for record, err := range paginator.Pages(ctx, apiRoot+"/groups") {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(record["id"])
//	}
//
// The walk is strictly sequential: the next page is requested only when
// the previous page's records have been consumed. Abandoning the
// iteration stops further requests; there is no background prefetching.
package pagination
