package portfolio

import "net/url"

const LogMaskVal = "xxxxxx"

// Mask replaces all values paired to key in vals with LogMaskVal.
// Mask leaves vals untouched when key is not set.
func Mask(vals url.Values, key string) {
	if !vals.Has(key) {
		return
	}

	vals.Set(key, LogMaskVal)
}
