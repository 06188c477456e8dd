// Package pairkey normalizes exchange wire symbol names into canonical
// BASE/QUOTE pair keys.
package pairkey

import (
	"sort"
	"strings"
)

// legacyAssetAliases maps legacy exchange asset codes to their canonical
// form (e.g. Kraken's XBT for BTC).
var legacyAssetAliases = map[string]string{
	"XBT": "BTC",
	"XETH": "ETH",
	"XXRP": "XRP",
	"XDG":  "DOGE",
}

// legacyAssetPrefixes is legacyAssetAliases' keys ordered longest-first, so
// a concatenated wire name like "XETHUSD" matches the 4-char "XETH" alias
// before any shorter key could be tried against it.
var legacyAssetPrefixes = func() []string {
	prefixes := make([]string, 0, len(legacyAssetAliases))
	for k := range legacyAssetAliases {
		prefixes = append(prefixes, k)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	return prefixes
}()

// reverseAliases is the inverse of legacyAssetAliases, used by Denormalize.
var reverseAliases = func() map[string]string {
	m := make(map[string]string, len(legacyAssetAliases))
	for legacy, canon := range legacyAssetAliases {
		m[canon] = legacy
	}
	return m
}()

// Normalize converts a wire-format pair name into its canonical BASE/QUOTE
// form. It accepts separators of "/", "-", "_" or none at all, and is
// idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(wireName string) string {
	base, quote := splitAsset(wireName)
	base = canonicalAsset(strings.ToUpper(base))
	quote = canonicalAsset(strings.ToUpper(quote))
	if quote == "" {
		quote = "USD"
	}
	return base + "/" + quote
}

// Denormalize reverses Normalize for a single asset symbol, returning the
// legacy wire alias if one exists, else the canonical symbol unchanged.
func Denormalize(asset string) string {
	if legacy, ok := reverseAliases[strings.ToUpper(asset)]; ok {
		return legacy
	}
	return asset
}

func canonicalAsset(asset string) string {
	if canon, ok := legacyAssetAliases[asset]; ok {
		return canon
	}
	return asset
}

// splitAsset splits a wire symbol into base/quote components using the
// first recognized separator. A symbol with no separator (Kraken's
// concatenated legacy form, e.g. "XETHUSD") is split on a known legacy
// asset-code prefix when one matches and leaves a non-empty remainder;
// otherwise it is treated as a bare base asset (quote defaults to USD in
// Normalize).
func splitAsset(wireName string) (base, quote string) {
	for _, sep := range []string{"/", "-", "_"} {
		if idx := strings.Index(wireName, sep); idx >= 0 {
			return wireName[:idx], wireName[idx+len(sep):]
		}
	}
	upper := strings.ToUpper(wireName)
	for _, prefix := range legacyAssetPrefixes {
		if strings.HasPrefix(upper, prefix) && len(upper) > len(prefix) {
			return wireName[:len(prefix)], wireName[len(prefix):]
		}
	}
	return wireName, ""
}
