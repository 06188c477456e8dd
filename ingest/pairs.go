package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type assetPairsResponse struct {
	Error  []string                    `json:"error"`
	Result map[string]assetPairRawInfo `json:"result"`
}

type assetPairRawInfo struct {
	WSName string `json:"wsname"`
}

// FetchPairs retrieves the tradable pair list from the exchange's
// asset-pairs REST endpoint (a sibling of the ticker REST endpoint),
// returning wire-format pair names in the slash-separated form the rest of
// the ingest package assumes (spec §7 "fatal startup: cannot fetch pair
// list").
func FetchPairs(ctx context.Context, restURL string, client *http.Client) ([]string, error) {
	pairsURL := strings.Replace(restURL, "/Ticker", "/AssetPairs", 1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pairsURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded assetPairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode asset pairs response: %w", err)
	}
	if len(decoded.Error) > 0 {
		return nil, fmt.Errorf("asset pairs error: %s", strings.Join(decoded.Error, "; "))
	}

	var pairs []string
	for _, info := range decoded.Result {
		if info.WSName == "" {
			continue
		}
		pairs = append(pairs, info.WSName)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("asset pairs response contained no usable pairs")
	}
	return pairs, nil
}
