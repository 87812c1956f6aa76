package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ZilDuck/opensea-trader/internal/entity"
	"mime"
	"net/http"
)

const maxBodyBytes = 1 << 20

// flexString takes a JSON string as is and keeps the JSON text of any other
// value, so a malformed field is rejected by request validation rather than
// by the decoder.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*s = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}

	*s = flexString(b)

	return nil
}

type tradeBody struct {
	Password     flexString `json:"password"`
	Mnemonic     flexString `json:"mnemonic"`
	Network      flexString `json:"network"`
	Seller       flexString `json:"seller"`
	Buyer        flexString `json:"buyer"`
	TokenId      flexString `json:"tokenId"`
	TokenAddress flexString `json:"tokenAddress"`
	StartAmount  flexString `json:"startAmount"`
}

func (b tradeBody) listing() entity.ListingRequest {
	return entity.ListingRequest{
		Password:     string(b.Password),
		Mnemonic:     string(b.Mnemonic),
		Network:      string(b.Network),
		Seller:       string(b.Seller),
		TokenId:      string(b.TokenId),
		TokenAddress: string(b.TokenAddress),
		StartAmount:  string(b.StartAmount),
	}
}

func (b tradeBody) fulfillment() entity.FulfillmentRequest {
	return entity.FulfillmentRequest{
		Password:     string(b.Password),
		Mnemonic:     string(b.Mnemonic),
		Network:      string(b.Network),
		Buyer:        string(b.Buyer),
		TokenId:      string(b.TokenId),
		TokenAddress: string(b.TokenAddress),
	}
}

// decodeBody reads a JSON or url-encoded form body.
func decodeBody(w http.ResponseWriter, r *http.Request) (tradeBody, error) {
	var body tradeBody

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return body, fmt.Errorf("invalid form body: %w", err)
		}
		body = tradeBody{
			Password:     flexString(r.PostForm.Get("password")),
			Mnemonic:     flexString(r.PostForm.Get("mnemonic")),
			Network:      flexString(r.PostForm.Get("network")),
			Seller:       flexString(r.PostForm.Get("seller")),
			Buyer:        flexString(r.PostForm.Get("buyer")),
			TokenId:      flexString(r.PostForm.Get("tokenId")),
			TokenAddress: flexString(r.PostForm.Get("tokenAddress")),
			StartAmount:  flexString(r.PostForm.Get("startAmount")),
		}
		return body, nil
	default:
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return body, errors.New("invalid JSON body")
		}
		return body, nil
	}
}
