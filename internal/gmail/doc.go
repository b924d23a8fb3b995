// Package gmail implements the mailbox gateway on top of the Gmail API.
//
// The Gateway interface covers everything the triage pipeline and the draft
// manager need from the mailbox: fetching recent messages, reading full
// message detail, lazily ensuring and applying labels, and sending threaded
// replies. Label lookup is case-insensitive and cached per process so a label
// is created at most once per distinct name.
//
// Authentication is handled by the internal/google package; a cached OAuth
// token with the gmail.modify scope is required.
package gmail
