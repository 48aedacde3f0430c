// Package tenant derives the active tenant's network identity from the
// current host. Tenant identity is never passed explicitly in requests; it
// is implicit in the hostname they are sent to.
package tenant

// Context describes where the client currently points. It is computed
// fresh on every call and never cached: the active host can change between
// calls (e.g. after a post-login redirect to a tenant subdomain).
type Context struct {
	Domain      string
	IsSubdomain bool
}

// HostLocator reports the current host. In a browser this would be
// window.location.hostname; the CLI reads the selected host live.
type HostLocator func() string

// Resolver computes tenant context from a live host locator.
type Resolver struct {
	locate HostLocator
}

// NewResolver creates a resolver over the given locator.
func NewResolver(locate HostLocator) *Resolver {
	return &Resolver{locate: locate}
}

// Resolve returns the tenant context for the current host. The domain is
// the hostname verbatim; anything other than the bare development hosts
// counts as a tenant subdomain.
func (r *Resolver) Resolve() Context {
	host := r.locate()
	return Context{
		Domain:      host,
		IsSubdomain: host != "localhost" && host != "127.0.0.1",
	}
}

// ExpectedDomain returns the development domain a tenant schema is served
// on, following the "{schema}.localhost" convention.
func ExpectedDomain(schemaName string) string {
	return schemaName + ".localhost"
}
