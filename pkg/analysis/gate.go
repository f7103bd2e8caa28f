/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: gate.go
Description: Fuzz-worthiness gate. Decides from a HEAD response whether a target is cheap
enough to fuzz. Content-Length is checked first, Content-Type is the fallback, and the
absence of both means the target is skipped.
*/

package analysis

import (
	"net/http"
	"strconv"
	"strings"
)

// Eligible applies the gate. A nil header (HEAD failed) is never eligible.
// Content types match by containment unless fullMatch is set.
func Eligible(headers http.Header, allowedContentTypes []string, sizeLimit int64, fullMatch bool) bool {
	if headers == nil {
		return false
	}

	if values := headers.Values("Content-Length"); len(values) > 0 {
		length, err := strconv.ParseInt(strings.TrimSpace(values[0]), 10, 64)
		if err != nil {
			return false
		}
		return length < sizeLimit
	}

	if values := headers.Values("Content-Type"); len(values) > 0 {
		contentType := values[0]
		for _, allowed := range allowedContentTypes {
			if fullMatch {
				if allowed == contentType {
					return true
				}
			} else if strings.Contains(contentType, allowed) {
				return true
			}
		}
		return false
	}

	return false
}
