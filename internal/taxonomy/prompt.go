package taxonomy

import (
	"fmt"
	"strings"
)

// definitions is the guidance text shown to the oracle for each category.
var definitions = map[Key]string{
	ApplicationConfirmed: "Confirmation that an application was received.",
	InterviewRequest:     "Recruiter requesting to schedule an interview or providing interview scheduling links.",
	InterviewReminder:    "Reminders or confirmations for upcoming interviews.",
	Offer:                "Job offer emails, offer letters, verbal offers, or negotiation instructions.",
	Rejected:             "Rejection emails stating the applicant is not moving forward.",
	Assessment:           "Coding tests, online assessments, take-home assignments.",
	FollowUp:             "Recruiter checking in, following up, asking for updates, or next-steps clarification.",
	JobAlert:             "Job recommendations, alerts about openings, job board notifications.",
	Newsletter:           "Company newsletters, weekly digests, marketing content.",
	Spam:                 "Irrelevant, suspicious, non-job content.",
	Uncategorized:        "Use ONLY if the email clearly does not fit any category above.",
}

// ClassificationPrompt renders the full classification prompt for one message.
// Only subject and snippet are included; the message body is never sent to the
// oracle. The priority section is advisory for the model; resolution against
// ambiguous output is enforced separately via Priority.
func ClassificationPrompt(keys []Key, subject, snippet string) string {
	keyNames := make([]string, len(keys))
	for i, k := range keys {
		keyNames[i] = string(k)
	}

	var b strings.Builder
	b.WriteString("You are a precise email classifier for job-related emails.\n")
	b.WriteString("Your task is to assign the email to EXACTLY ONE of the following category keys:\n\n")
	b.WriteString(strings.Join(keyNames, ", "))
	b.WriteString("\n\n=========================\nCATEGORY DEFINITIONS\n=========================\n\n")
	for _, k := range keys {
		if def, ok := definitions[k]; ok {
			fmt.Fprintf(&b, "%s:\n    %s\n\n", k, def)
		}
	}
	b.WriteString("=========================\nCATEGORY PRIORITY\n=========================\n")
	b.WriteString(priorityLine(keys))
	b.WriteString("\n\n=========================\nEMAIL TO CLASSIFY\n=========================\n\n")
	fmt.Fprintf(&b, "Subject: %s\nSnippet: %s\n", subject, snippet)
	b.WriteString("\n=========================\nRESPONSE RULES\n=========================\n")
	b.WriteString("- Respond with ONLY the category key.\n")
	b.WriteString("- No explanation.\n")
	b.WriteString("- No extra text.\n")
	b.WriteString("- No formatting.\n")
	b.WriteString("Category:\n")
	return b.String()
}

// priorityLine renders the keys joined by " > " in their priority order.
func priorityLine(keys []Key) string {
	ordered := make([]string, 0, len(keys))
	for _, p := range priorityOrder {
		for _, k := range keys {
			if k == p {
				ordered = append(ordered, string(k))
				break
			}
		}
	}
	return strings.Join(ordered, " > ")
}
