package middleware

import (
	"mime"
	"net/http"
	"strings"
)

const (
	MethodOverrideField  = "_method"
	MethodOverrideHeader = "X-HTTP-Method-Override"

	maxOverrideMemory = 32 << 20
)

// MethodOverride lets a POST stand in for PUT, PATCH or DELETE. Browsers
// cannot send a multipart file with those verbs, so forms carry the intended
// verb in the _method field instead.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if method, ok := overrideMethod(r); ok {
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}

func overrideMethod(r *http.Request) (string, bool) {
	method := r.Header.Get(MethodOverrideHeader)
	if method == "" {
		method = formMethod(r)
	}

	method = strings.ToUpper(strings.TrimSpace(method))
	switch method {
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
		return method, true
	default:
		return "", false
	}
}

func formMethod(r *http.Request) string {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return ""
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxOverrideMemory); err != nil {
			return ""
		}
	default:
		return ""
	}
	return r.PostForm.Get(MethodOverrideField)
}
