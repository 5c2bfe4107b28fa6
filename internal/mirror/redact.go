package mirror

import "net/url"

// Redact strips the query string and fragment from a media URL. Signed URLs
// carry credentials there.
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
