// internal/domain/homework/status.go
package homework

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Status is the review state code reported by the API.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
)

// KnownStatuses lists every status that has a verdict.
func KnownStatuses() []Status {
	return []Status{StatusApproved, StatusReviewing, StatusRejected}
}

var verdicts = map[Status]string{
	StatusApproved:  "The work has been reviewed: the reviewer liked everything. Hooray!",
	StatusReviewing: "The work has been taken for review by a reviewer.",
	StatusRejected:  "The work has been reviewed: the reviewer has remarks.",
}

// Verdict returns the sentence sent to the chat for a status.
func Verdict(s Status) (string, bool) {
	v, ok := verdicts[s]
	return v, ok
}

// UnchangedMessage is sent when a cycle brings no new homework statuses.
const UnchangedMessage = "Homework status has not changed."

// ParseStatus turns one record into the chat message for its current status.
// The name is checked before the status.
func ParseStatus(r Record) (string, error) {
	if r.HomeworkName == nil {
		return "", missingField("homework_name")
	}
	if r.Status == nil {
		return "", missingField("status")
	}
	status := Status(*r.Status)
	logrus.WithFields(logrus.Fields{
		"component": "homework",
		"homework":  *r.HomeworkName,
	}).Debugf("Homework status %q", status)

	verdict, ok := Verdict(status)
	if !ok {
		return "", &Error{Kind: KindUnknownStatus, Field: "status", Detail: fmt.Sprintf("unknown homework status %q", status)}
	}
	return fmt.Sprintf("Homework review status changed for \"%s\". %s", *r.HomeworkName, verdict), nil
}
