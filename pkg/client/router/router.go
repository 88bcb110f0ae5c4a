// Package router picks the navigation variant for the current session. Every
// role decision funnels through roles.Classify so layout logic can never
// disagree with itself.
package router

import (
	"strings"
	"sync"

	"github.com/custconnect/custconnect-backend/pkg/roles"
)

// Home routes per classification.
const (
	HomeStudent = "/home"
	HomeVendor  = "/vendor"
	HomeAdmin   = "/admin"
)

var homeRoutes = map[roles.Classification]string{
	roles.ClassStudent: HomeStudent,
	roles.ClassVendor:  HomeVendor,
	roles.ClassAdmin:   HomeAdmin,
}

// HomeRoute returns the landing route for a classification.
func HomeRoute(class roles.Classification) string {
	if route, ok := homeRoutes[class]; ok {
		return route
	}
	return HomeStudent
}

// RolesSource yields the live role list. The router re-reads it on every
// navigation instead of caching a classification, because roles can change
// mid-session.
type RolesSource interface {
	Roles() []string
}

// Decision is the outcome of one navigation check.
type Decision struct {
	// Target is the route the navigation should land on.
	Target string
	// Redirected is true when the requested route was replaced by the
	// classification's home route.
	Redirected bool
	// Classification is the bucket the decision was made for.
	Classification roles.Classification
}

// Router guards routes by classification.
type Router struct {
	source RolesSource

	mu       sync.RWMutex
	required map[string]roles.Classification
}

func New(source RolesSource) *Router {
	return &Router{source: source, required: make(map[string]roles.Classification)}
}

// Guard marks a route prefix as requiring a classification. Unguarded routes
// are open to every classification.
func (r *Router) Guard(prefix string, class roles.Classification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.required[normalize(prefix)] = class
}

// Resolve decides where a navigation to route should land. The session's
// roles are classified fresh on every call; if the route's required
// classification does not match, the decision redirects to the
// classification's home route.
func (r *Router) Resolve(route string) Decision {
	var roleNames []string
	if r.source != nil {
		roleNames = r.source.Roles()
	}
	class := roles.Classify(roleNames)

	required, guarded := r.requiredFor(route)
	if guarded && required != class {
		return Decision{Target: HomeRoute(class), Redirected: true, Classification: class}
	}
	return Decision{Target: normalize(route), Redirected: false, Classification: class}
}

func (r *Router) requiredFor(route string) (roles.Classification, bool) {
	route = normalize(route)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for prefix, class := range r.required {
		if route == prefix || strings.HasPrefix(route, prefix+"/") {
			return class, true
		}
	}
	return "", false
}

func normalize(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	route = strings.TrimRight(route, "/")
	if route == "" {
		return "/"
	}
	return route
}
