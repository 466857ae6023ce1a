package s21

import (
	"context"
	"fmt"
	"net/url"
)

const (
	clusterPageSize = 100
	clusterMaxPages = 10
)

// ClusterMap returns every seat of a cluster, following pages while the
// platform keeps returning full ones. Seats repeated across pages are kept
// once, and a full page that adds nothing ends the walk, so an upstream that
// ignores offset cannot inflate the map. Errors are wrapped in *FetchError.
func (c *Client) ClusterMap(ctx context.Context, token, clusterID string) ([]Seat, error) {
	var seats []Seat
	seen := make(map[seatKey]struct{})

	for page := 0; page < clusterMaxPages; page++ {
		path := fmt.Sprintf("/clusters/%s/map?limit=%d&offset=%d",
			url.PathEscape(clusterID), clusterPageSize, page*clusterPageSize)

		var out ClusterMapResponse
		if err := c.getJSON(ctx, token, path, &out); err != nil {
			return nil, &FetchError{ClusterID: clusterID, Err: err}
		}

		added := 0
		for _, seat := range out.ClusterMap {
			key := seatKey{login: seat.Login, row: seat.Row, number: seat.Number}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			seats = append(seats, seat)
			added++
		}

		if len(out.ClusterMap) < clusterPageSize || added == 0 {
			break
		}
	}

	return seats, nil
}

type seatKey struct {
	login       string
	row, number FlexString
}
