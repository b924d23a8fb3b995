package taxonomy

// Key identifies a single category in the closed taxonomy.
// Keys are never invented at runtime; anything the oracle returns that is
// not one of these resolves to Uncategorized.
type Key string

// The full set of category keys for job-related mail.
const (
	ApplicationConfirmed Key = "application_confirmed"
	InterviewRequest     Key = "interview_request"
	InterviewReminder    Key = "interview_reminder"
	Offer                Key = "offer"
	Rejected             Key = "rejected"
	Assessment           Key = "assessment"
	FollowUp             Key = "follow_up"
	JobAlert             Key = "job_alert"
	Newsletter           Key = "newsletter"
	Spam                 Key = "spam"
	Uncategorized        Key = "uncategorized"
)

// Category pairs a taxonomy key with its Gmail display label.
type Category struct {
	Key   Key
	Label string
}

// priorityOrder disambiguates oracle output that mentions more than one key.
// Earlier entries win. This is the same ordering the classification prompt
// documents, enforced in code rather than trusted to the model.
var priorityOrder = []Key{
	InterviewRequest,
	InterviewReminder,
	Offer,
	Rejected,
	Assessment,
	FollowUp,
	ApplicationConfirmed,
	JobAlert,
	Newsletter,
	Spam,
	Uncategorized,
}

var categories = map[Key]Category{
	ApplicationConfirmed: {Key: ApplicationConfirmed, Label: "Applied ✓"},
	InterviewRequest:     {Key: InterviewRequest, Label: "Interview 📅"},
	InterviewReminder:    {Key: InterviewReminder, Label: "Interview Reminder ⏰"},
	Offer:                {Key: Offer, Label: "Job Offer 🎉"},
	Rejected:             {Key: Rejected, Label: "Rejected ❌"},
	Assessment:           {Key: Assessment, Label: "Assessment 📝"},
	FollowUp:             {Key: FollowUp, Label: "Follow-up 💬"},
	JobAlert:             {Key: JobAlert, Label: "Job Alert 🔔"},
	Newsletter:           {Key: Newsletter, Label: "Newsletter 📰"},
	Spam:                 {Key: Spam, Label: "Spam 🗑️"},
	Uncategorized:        {Key: Uncategorized, Label: "Other 📧"},
}

// DefaultImportant is the default importance set: categories that trigger an
// operator notification with a reply action.
var DefaultImportant = []Key{InterviewRequest, InterviewReminder, FollowUp}

// Keys returns all taxonomy keys in priority order (highest first).
func Keys() []Key {
	out := make([]Key, len(priorityOrder))
	copy(out, priorityOrder)
	return out
}

// Lookup returns the category for k, reporting whether k is part of the taxonomy.
func Lookup(k Key) (Category, bool) {
	c, ok := categories[k]
	return c, ok
}

// Label returns the Gmail display label for k. Unknown keys get the
// Uncategorized label.
func Label(k Key) string {
	if c, ok := categories[k]; ok {
		return c.Label
	}
	return categories[Uncategorized].Label
}

// Priority returns the rank of k in the priority order; lower is more
// important. Unknown keys rank below everything.
func Priority(k Key) int {
	for i, p := range priorityOrder {
		if p == k {
			return i
		}
	}
	return len(priorityOrder)
}

// Set is an importance set of category keys.
type Set map[Key]struct{}

// NewSet builds a Set from keys, silently dropping anything outside the taxonomy.
func NewSet(keys []Key) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		if _, ok := categories[k]; ok {
			s[k] = struct{}{}
		}
	}
	return s
}

// Contains reports whether k is a member of the set.
func (s Set) Contains(k Key) bool {
	_, ok := s[k]
	return ok
}
