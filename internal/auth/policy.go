package auth

import (
	"net/http"
	"strings"
)

// Policy maps request paths to the role they require.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds the report API policy. Exempt paths and prefixes
// skip JWT checks entirely.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt reports whether r bypasses the JWT check.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves the role for r. Paths outside /api/ are not classified.
//
//	generate, export.*        operator
//	other report GET          viewer
//	other /api/ GET/HEAD      viewer
//	other /api/ writes        operator
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil || !strings.HasPrefix(r.URL.Path, "/api/") {
		return "", false
	}
	if isReportAction(r.URL.Path) || !isReadMethod(r.Method) {
		return RoleOperator, true
	}
	return RoleViewer, true
}

func isReportAction(path string) bool {
	if !strings.HasPrefix(path, "/api/v1/reports/") {
		return false
	}
	last := path[strings.LastIndex(path, "/")+1:]
	return last == "generate" || strings.HasPrefix(last, "export.")
}

func isReadMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
