package audit

import (
	"net/http"
	"strings"
)

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// routeOverrides names routes whose generic verb would be misleading.
var routeOverrides = map[string]ActionResource{
	"POST /auth/credentials/:provider":   {Action: "link", Resource: "credential"},
	"DELETE /auth/credentials/:provider": {Action: "unlink", Resource: "credential"},
	"PUT /auth/password":                 {Action: "password_change", Resource: "credential"},
	"POST /admin/otp/sweep":              {Action: "sweep", Resource: "otp"},
}

// ParseRoute returns action and resource for a method and route template (e.g. "DELETE", "/auth/credentials/:provider").
// Unmapped routes get a verb from the method and a resource from the last static path segment.
func ParseRoute(method, route string) ActionResource {
	method = strings.ToUpper(method)
	if ar, ok := routeOverrides[method+" "+route]; ok {
		return ar
	}
	return ActionResource{Action: methodToAction(method), Resource: routeToResource(route)}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "get"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

func routeToResource(route string) string {
	parts := strings.Split(strings.Trim(route, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		p := parts[i]
		if p == "" || strings.HasPrefix(p, ":") || strings.HasPrefix(p, "*") {
			continue
		}
		return strings.TrimSuffix(p, "s")
	}
	return "unknown"
}
