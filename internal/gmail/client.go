package gmail

import (
	"context"
	"fmt"
	"strings"
	"sync"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxtriage/internal/google"
)

// Client wraps the Gmail Users service and implements Gateway.
type Client struct {
	svc *gmail.UsersService

	// labelIDs caches label name (lower-cased) to label id so each distinct
	// label is looked up or created at most once per process.
	mu       sync.Mutex
	labelIDs map[string]string
}

// HasToken checks if a valid OAuth token exists.
func HasToken() bool {
	return google.HasToken()
}

// NewClient creates a new Gmail client with OAuth2 authentication.
func NewClient(ctx context.Context) (*Client, error) {
	httpClient, err := google.GetHTTPClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found: %w", err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		svc:      svc.Users,
		labelIDs: make(map[string]string),
	}, nil
}

// buildQuery renders the Gmail search query for a triage pass.
func buildQuery(hours int, unreadOnly bool) string {
	q := fmt.Sprintf("newer_than:%dh", hours)
	if unreadOnly {
		q += " is:unread"
	}
	return q
}

// FetchSince returns inbox messages from the last hours hours in fetch order.
func (c *Client) FetchSince(ctx context.Context, hours, maxResults int, unreadOnly bool) ([]*Message, error) {
	res, err := c.svc.Messages.List("me").
		LabelIds("INBOX").
		Q(buildQuery(hours, unreadOnly)).
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]*Message, 0, len(res.Messages))
	for _, m := range res.Messages {
		detail, err := c.getMessage(ctx, m.Id, "metadata")
		if err != nil {
			// A single unreadable message must not sink the batch.
			continue
		}
		messages = append(messages, detail)
	}
	return messages, nil
}

// GetDetail returns the full message including its decoded plain-text body.
func (c *Client) GetDetail(ctx context.Context, messageID string) (*Message, error) {
	return c.getMessage(ctx, messageID, "full")
}

func (c *Client) getMessage(ctx context.Context, messageID, format string) (*Message, error) {
	msg, err := c.svc.Messages.Get("me", messageID).Format(format).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}

	out := &Message{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Sender:   headerValue(msg, "From"),
		Subject:  headerValue(msg, "Subject"),
		Snippet:  msg.Snippet,
		Labels:   msg.LabelIds,
	}
	if out.Subject == "" {
		out.Subject = "(No Subject)"
	}
	if out.Sender == "" {
		out.Sender = "(Unknown)"
	}
	if format == "full" {
		out.Body = extractPlainText(msg.Payload)
	}
	return out, nil
}

// EnsureLabel returns the label id for name, creating the label lazily.
func (c *Client) EnsureLabel(ctx context.Context, name string) (string, error) {
	key := strings.ToLower(name)

	c.mu.Lock()
	if id, ok := c.labelIDs[key]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	res, err := c.svc.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to list labels: %w", err)
	}
	for _, l := range res.Labels {
		if strings.EqualFold(l.Name, name) {
			c.cacheLabel(key, l.Id)
			return l.Id, nil
		}
	}

	created, err := c.svc.Labels.Create("me", &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create label %q: %w", name, err)
	}
	c.cacheLabel(key, created.Id)
	return created.Id, nil
}

func (c *Client) cacheLabel(key, id string) {
	c.mu.Lock()
	c.labelIDs[key] = id
	c.mu.Unlock()
}

// ApplyLabel adds labelID to the message. Gmail treats re-adding a present
// label as a no-op, so repeated application is safe.
func (c *Client) ApplyLabel(ctx context.Context, messageID, labelID string) error {
	_, err := c.svc.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		AddLabelIds: []string{labelID},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to apply label to message %s: %w", messageID, err)
	}
	return nil
}

// SendReply delivers a reply into the given thread. Threading headers are
// taken from the thread's last message when available; without them Gmail
// still groups by thread id.
func (c *Client) SendReply(ctx context.Context, threadID, to, subject, body string) error {
	var inReplyTo, references string
	if thread, err := c.svc.Threads.Get("me", threadID).Format("metadata").Context(ctx).Do(); err == nil && len(thread.Messages) > 0 {
		last := thread.Messages[len(thread.Messages)-1]
		inReplyTo = headerValue(last, "Message-ID")
		if refs := headerValue(last, "References"); refs != "" {
			references = refs + " " + inReplyTo
		} else {
			references = inReplyTo
		}
	}

	raw := buildReplyRaw(to, replySubject(subject), body, inReplyTo, references)
	_, err := c.svc.Messages.Send("me", &gmail.Message{
		Raw:      raw,
		ThreadId: threadID,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to send reply in thread %s: %w", threadID, err)
	}
	return nil
}

var _ Gateway = (*Client)(nil)
