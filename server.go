package rdapbootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

const titlePathShape = "Bad Request: queries must take the form /<type>/<handle>"

// ServeHTTP answers /<type>/<handle> with a redirect to the authoritative
// RDAP service, or with an RDAP error document.
func (r *Redirector) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()

	reqID := req.Header.Get(requestIDHeader)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	h := w.Header()
	h.Set(requestIDHeader, reqID)
	h.Set("Access-Control-Allow-Origin", "*")
	log := r.log.WithValues("requestId", reqID)

	t, code, location, err := r.dispatch(logr.NewContext(req.Context(), log), req)
	if err != nil {
		code = err.Code
		r.writeError(w, err)
		if code >= http.StatusInternalServerError {
			log.Info("request failed", "path", req.URL.Path, "code", code, "error", err.Error())
		}
	} else {
		h.Set("Location", location)
		w.WriteHeader(code)
	}

	var typ string
	if t != 0 {
		typ = t.String()
	}
	log.V(1).Info("request", "method", req.Method, "path", req.URL.Path, "code", code,
		"location", location, "took", time.Since(start).String())
	r.metrics.observeRequest(typ, code, time.Since(start))
}

// dispatch returns either a redirect status and target or an *Error.
func (r *Redirector) dispatch(ctx context.Context, req *http.Request) (ObjectType, int, string, *Error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return 0, 0, "", &Error{Code: http.StatusMethodNotAllowed, Title: "Method Not Allowed", Err: ErrBadRequest}
	}

	escaped := req.URL.EscapedPath()
	if strings.Trim(escaped, "/") == "" {
		return 0, http.StatusMovedPermanently, r.aboutURL, nil
	}

	typeSeg, handleEsc, ok := splitPath(escaped)
	if !ok {
		return 0, 0, "", badRequest(titlePathShape, nil)
	}
	t, ok := ParseObjectType(typeSeg)
	if !ok {
		return 0, 0, "", badRequest(fmt.Sprintf("Bad Request: unsupported object type '%s'", typeSeg), nil)
	}
	handle, err := url.PathUnescape(handleEsc)
	if err != nil {
		return t, 0, "", badRequest(titlePathShape, err)
	}

	if e := r.allow(ctx, req); e != nil {
		return t, 0, "", e
	}

	res, err := r.Resolve(ctx, t, handle)
	if err != nil {
		return t, 0, "", asError(err)
	}
	return t, http.StatusFound, RedirectURL(res.BaseURL, t, handleEsc, req.URL.RawQuery), nil
}

// splitPath splits "/<type>/<handle>". The handle is everything after the
// first separator and may itself contain "/".
func splitPath(p string) (typ, handle string, ok bool) {
	p = strings.TrimLeft(p, "/")
	typ, handle, found := strings.Cut(p, "/")
	handle = strings.TrimLeft(handle, "/")
	if !found || typ == "" || handle == "" {
		return "", "", false
	}
	return typ, handle, true
}

// allow applies the anonymous or authenticated policy. Limiter failures
// let the request through.
func (r *Redirector) allow(ctx context.Context, req *http.Request) *Error {
	p := r.anonymous
	if tok, ok := bearerToken(req); ok && r.tokens != nil && r.tokens.Valid(tok) {
		p = r.authenticated
	}
	id := r.identity.identity(req)
	d, err := r.limiter.Allow(ctx, id, p)
	if err != nil {
		logr.FromContextOrDiscard(ctx).Error(err, "rate limiter unavailable", "identity", id)
		return nil
	}
	if d.Allowed {
		return nil
	}
	r.metrics.rejected(p.Name)
	logr.FromContextOrDiscard(ctx).V(1).Info("rate limited", "identity", id, "policy", p.Name,
		"nextToken", d.RetryAfter.String())
	return rateLimited(p.Window)
}

func (r *Redirector) writeError(w http.ResponseWriter, e *Error) {
	h := w.Header()
	h.Set("Content-Type", rdapContentType)
	if e.Code == http.StatusTooManyRequests && e.RetryAfter > 0 {
		h.Set("Retry-After", strconv.Itoa(int(math.Ceil(e.RetryAfter.Seconds()))))
	}
	if e.Code == http.StatusMethodNotAllowed {
		h.Set("Allow", "GET, HEAD")
	}
	w.WriteHeader(e.Code)
	_ = json.NewEncoder(w).Encode(newErrorResponse(e.Code, e.Title, r.aboutURL))
}
