package portfolio

type Key string

const (
	// CurrentUserKey stashes the user authenticated by an HTTP request's access token.
	CurrentUserKey Key = "CurrentUserKey"

	// IpAddrKey stashes the IP address of an HTTP request.
	IpAddrKey Key = "IpAddrKey"

	// RequestIDKey stashes a unique UUID for each HTTP request.
	RequestIDKey Key = "RequestIDKey"

	// VersionKey stashes the API version an HTTP request was routed through.
	VersionKey Key = "VersionKey"
)

// String formats the stringified key with additional contextual information
func (k Key) String() string {
	return "portfolio context key: " + string(k)
}
