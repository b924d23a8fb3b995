// Package google provides OAuth2 authentication and token management for the
// Gmail API. Tokens are cached on disk under the user cache directory and
// refreshed transparently through the oauth2 token source.
package google
