package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts its routes on a gin group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts domain groups under /api/<version>
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the version segment of the API prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

// NewRouter creates a Router for engine, defaulting to v1
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues a group for Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Prefix is the versioned API root, e.g. /api/v1
func (r *Router) Prefix() string {
	return "/api/" + r.apiVersion
}

// Setup mounts every queued group
func (r *Router) Setup() {
	api := r.engine.Group(r.Prefix())
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// Route is one method and path relative to its group
type Route struct {
	Method   string
	Path     string
	handlers []gin.HandlerFunc
}

// DomainGroup collects the routes of one business area (catalog, trade, ...)
// so they can be declared before the engine exists
type DomainGroup struct {
	name       string
	prefix     string
	routes     []Route
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

// NewDomainGroup creates a group mounted at prefix
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Name returns the group name
func (dg *DomainGroup) Name() string { return dg.name }

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string { return dg.prefix }

// Use adds middleware that runs for this group and its subgroups
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// Handle declares a route for any method
func (dg *DomainGroup) Handle(method, relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, Route{Method: method, Path: relativePath, handlers: handlers})
	return dg
}

func (dg *DomainGroup) GET(p string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodGet, p, h...)
}

func (dg *DomainGroup) POST(p string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPost, p, h...)
}

func (dg *DomainGroup) PUT(p string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPut, p, h...)
}

func (dg *DomainGroup) PATCH(p string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPatch, p, h...)
}

func (dg *DomainGroup) DELETE(p string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodDelete, p, h...)
}

// Group declares a nested group, e.g. catalog → /products
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	sub := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, sub)
	return sub
}

// Routes lists every declared route with its path relative to the parent
// of this group, subgroups included
func (dg *DomainGroup) Routes() []Route {
	var out []Route
	for _, r := range dg.routes {
		out = append(out, Route{Method: r.Method, Path: joinPath(dg.prefix, r.Path)})
	}
	for _, sub := range dg.subgroups {
		for _, r := range sub.Routes() {
			out = append(out, Route{Method: r.Method, Path: joinPath(dg.prefix, r.Path)})
		}
	}
	return out
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, r := range dg.routes {
		group.Handle(r.Method, r.Path, r.handlers...)
	}
	for _, sub := range dg.subgroups {
		sub.RegisterRoutes(group)
	}
}

func joinPath(prefix, p string) string {
	if p == "" {
		return prefix
	}
	return path.Join(prefix, p)
}
