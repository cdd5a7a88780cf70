package notion

import (
	"context"

	"github.com/jomei/notionapi"

	"devdigest/internal/digest"
)

// RequestReader lists open request records.
type RequestReader struct {
	client *Client
}

func NewRequestReader(client *Client) *RequestReader {
	return &RequestReader{client: client}
}

// Pending returns open requests. On failure the slice is empty, never nil,
// and the error is returned with it.
func (r *RequestReader) Pending(ctx context.Context) ([]digest.Request, error) {
	requests, err := r.FetchPending(ctx)
	if err != nil {
		return []digest.Request{}, err
	}
	return requests, nil
}

// FetchPending pages through every record typed "request" that has not been started.
func (r *RequestReader) FetchPending(ctx context.Context) ([]digest.Request, error) {
	q := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.AndCompoundFilter{
			notionapi.PropertyFilter{
				Property:    PropType,
				MultiSelect: &notionapi.MultiSelectFilterCondition{Contains: TypeRequest},
			},
			notionapi.PropertyFilter{
				Property: PropStatus,
				Status:   &notionapi.StatusFilterCondition{Equals: StatusNotStarted},
			},
		},
	}

	requests := []digest.Request{}
	for {
		res, err := r.client.QueryDatabase(ctx, q)
		if err != nil {
			return nil, err
		}

		for _, page := range res.Results {
			requests = append(requests, digest.Request{
				ID:    string(page.ID),
				Title: plainTitle(page.Properties[PropTitle]),
				Date:  dateStart(page.Properties[PropDate]),
			})
		}

		if !res.HasMore || res.NextCursor == "" {
			break
		}
		q.StartCursor = res.NextCursor
	}
	return requests, nil
}
