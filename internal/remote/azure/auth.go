package azure

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
)

// masterKeyAuth builds the data-plane authorization header value.
// resourceLink uses names, not resource ids, and is not lower-cased.
func masterKeyAuth(key []byte, verb, resourceType, resourceLink, date string) string {
	payload := strings.ToLower(verb) + "\n" +
		strings.ToLower(resourceType) + "\n" +
		resourceLink + "\n" +
		strings.ToLower(date) + "\n" +
		"\n"

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(payload))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return url.QueryEscape("type=master&ver=1.0&sig=" + sig)
}

// partitionKeyOf returns the JSON array of partition key values of doc for
// the given key paths. Values missing from the document are sent as {}.
func partitionKeyOf(doc map[string]any, paths []string) string {
	values := make([]any, 0, len(paths))
	for _, path := range paths {
		v, ok := lookupPath(doc, path)
		if !ok {
			v = map[string]any{}
		}
		values = append(values, v)
	}
	out, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(out)
}

func lookupPath(doc map[string]any, path string) (any, bool) {
	var current any = doc
	for _, segment := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		segment = strings.Trim(segment, `"`)
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
