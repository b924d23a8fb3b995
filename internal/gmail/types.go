package gmail

import "context"

// Message is one mailbox message as seen by the triage pipeline.
// Instances are immutable within a processing cycle; the next cycle fetches
// fresh copies.
type Message struct {
	// ID is the Gmail message id and the message's identity.
	ID string

	// ThreadID groups the message with its conversation thread.
	ThreadID string

	// Sender is the raw From header value.
	Sender string

	// Subject is the Subject header value, "(No Subject)" when absent.
	Subject string

	// Snippet is Gmail's short plain-text preview.
	Snippet string

	// Labels are the label ids currently applied to the message.
	Labels []string

	// Body is the decoded plain-text body. Only populated by GetDetail;
	// list fetches leave it empty.
	Body string
}

// Content returns the text used for draft generation: the full body when
// available, otherwise the snippet.
func (m *Message) Content() string {
	if m.Body != "" {
		return m.Body
	}
	return m.Snippet
}

// Gateway is the mailbox contract consumed by the classification pipeline and
// the draft manager. *Client implements it against the Gmail API; tests
// substitute fakes.
type Gateway interface {
	// FetchSince returns inbox messages received in the last hours hours,
	// up to maxResults, optionally restricted to unread messages.
	FetchSince(ctx context.Context, hours, maxResults int, unreadOnly bool) ([]*Message, error)

	// GetDetail returns the full message including its decoded body.
	GetDetail(ctx context.Context, messageID string) (*Message, error)

	// EnsureLabel returns the label id for name, creating the label if it
	// does not exist. Lookup is case-insensitive and the result is cached,
	// so creation happens at most once per distinct name per process.
	EnsureLabel(ctx context.Context, name string) (string, error)

	// ApplyLabel adds labelID to the message. Re-applying an already present
	// label is a no-op on the Gmail side.
	ApplyLabel(ctx context.Context, messageID, labelID string) error

	// SendReply delivers a reply into the given thread.
	SendReply(ctx context.Context, threadID, to, subject, body string) error
}
