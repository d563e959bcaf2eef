package handler

import (
	"net/http"
	"net/url"

	"github.com/msomdec/captionly/internal/view"
)

const (
	noticeError   = "error"
	noticeSuccess = "success"
)

const msgTooManyRequests = "Too many requests. Please try again later."

// encodedRedirect sends a 303 to path carrying a status banner in the
// type and message query parameters. Existing query parameters on path
// are kept.
func encodedRedirect(w http.ResponseWriter, r *http.Request, kind, path, message string) {
	u, err := url.Parse(path)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set("type", kind)
	q.Set("message", message)
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

// NoticeFromRequest decodes the banner set by encodedRedirect. Unknown
// types produce no banner.
func NoticeFromRequest(r *http.Request) view.Notice {
	q := r.URL.Query()
	kind := q.Get("type")
	if kind != noticeError && kind != noticeSuccess {
		return view.Notice{}
	}
	return view.Notice{Type: kind, Message: q.Get("message")}
}
