// Copyright The Mantle Authors
// SPDX-License-Identifier: Apache-2.0

package fileserver

import (
	"io/fs"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/coreos/pkg/capnslog"
)

// Archive content types, registered so downloads are labelled the same
// regardless of the host's mime.types.
var archiveTypes = map[string]string{
	".gz":  "application/gzip",
	".Z":   "application/octet-stream",
	".bz2": "application/x-bzip2",
	".xz":  "application/x-xz",
}

var registerTypes = sync.OnceFunc(func() {
	for ext, typ := range archiveTypes {
		if err := mime.AddExtensionType(ext, typ); err != nil {
			plog.Warningf("Registering content type %s for %s: %v", typ, ext, err)
		}
	}
})

// rootFS reports paths that resolve outside the root as permission
// errors so the file server answers 403 instead of 500.
type rootFS struct {
	fs.FS
}

func (r rootFS) Open(name string) (fs.File, error) {
	f, err := r.FS.Open(name)
	if err != nil && isPathEscape(err) {
		plog.Noticef("Refusing %q: resolves outside the root", name)
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return f, err
}

// isPathEscape detects os.Root refusing to follow a path out of the
// root. The os package does not export the error value; the message is
// errPathEscapes from os/root.go as of Go 1.24. If it changes, escapes
// turn into 500s rather than leaks, and TestIsPathEscape fails.
func isPathEscape(err error) bool {
	return strings.Contains(err.Error(), "path escapes from parent")
}

// allowGetHead answers 501 for anything but GET and HEAD.
func allowGetHead(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			next.ServeHTTP(w, r)
		default:
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Unsupported method ("+r.Method+")", http.StatusNotImplemented)
		}
	})
}

// statusRecorder captures the status and size of a response for the
// access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += int64(n)
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// logRequests writes one access line per request. Client and server
// errors are logged a level higher so they show up by default.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		level := capnslog.INFO
		if rec.status >= http.StatusBadRequest {
			level = capnslog.NOTICE
		}
		plog.Logf(level, "%s \"%s %s %s\" %d %d",
			r.RemoteAddr, r.Method, r.URL.RequestURI(), r.Proto, rec.status, rec.bytes)
	})
}
