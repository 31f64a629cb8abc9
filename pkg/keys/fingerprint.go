package keys

import (
	"encoding/hex"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/crawlkit/crawlcache/pkg/pipeline"
	"lukechampine.com/blake3"
)

// Fingerprint computes the default cache key for a request: a blake3
// hex digest over the method, canonical URL, body, and headers. Two
// requests that identify the same work produce the same fingerprint
// regardless of query parameter or header ordering.
func Fingerprint(req *pipeline.Request) string {
	h := blake3.New(32, nil)

	method := req.Method
	if method == "" {
		method = "GET"
	}
	io.WriteString(h, method)
	io.WriteString(h, "\n")
	io.WriteString(h, canonicalURL(req.URL))
	io.WriteString(h, "\n")
	h.Write(req.Body)
	io.WriteString(h, "\n")
	writeHeaders(h, req)

	return hex.EncodeToString(h.Sum(nil))
}

// hashString returns a short blake3 digest of s, used to scope keys to
// one spider.
func hashString(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}

// canonicalURL normalizes a URL for fingerprinting: query parameters
// are sorted and the fragment is dropped. Unparseable URLs are used
// verbatim.
func canonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = u.Query().Encode()
	u.Fragment = ""
	return u.String()
}

// writeHeaders feeds the identity-relevant headers into the hash in a
// deterministic order.
func writeHeaders(w io.Writer, req *pipeline.Request) {
	if len(req.Headers) == 0 {
		return
	}
	names := make([]string, 0, len(req.Headers))
	for name := range req.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		io.WriteString(w, strings.ToLower(name))
		io.WriteString(w, ":")
		io.WriteString(w, strings.Join(req.Headers[name], ","))
		io.WriteString(w, "\n")
	}
}
