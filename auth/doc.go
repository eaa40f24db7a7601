/*
Package auth issues and verifies the JSON Web Tokens authenticating API requests.

[Service.ObtainPair] signs a short-lived access token and a longer-lived refresh token with HS256.
Every refresh token is recorded as an [OutstandingToken];
[Service.Blacklist] revokes one, after which [Service.Refresh] refuses it.

Requests present the access token in the Authorization header:

	Authorization: Bearer <access>
*/
package auth
