package s21

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// TokenResponse is the Keycloak token endpoint payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// ClusterMapResponse is one page of the cluster seat map.
type ClusterMapResponse struct {
	ClusterMap []Seat `json:"clusterMap"`
}

// Seat is a single workplace. Login is empty when nobody sits there.
type Seat struct {
	Login  string     `json:"login"`
	Row    FlexString `json:"row"`
	Number FlexString `json:"number"`
}

// FlexString accepts either a JSON string or a JSON number. The platform has
// returned seat numbers both ways.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*f = FlexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }
