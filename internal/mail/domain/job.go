package domain

import "errors"

const (
	//QueueName definition queue name
	QueueName = "mail_jobs"
)

// Kind mail template
type Kind string

const (
	// KindVerification email verification link
	KindVerification Kind = "verification"
	// KindResetPassword password reset link
	KindResetPassword Kind = "reset-password"
	// KindPasswordUpdated password changed notice
	KindPasswordUpdated Kind = "password-updated"
)

var (
	// ErrInvalidJob job can never be sent
	ErrInvalidJob = errors.New("invalid mail job")
	// ErrMailRejected the provider refused the message, retrying will not help
	ErrMailRejected = errors.New("mail rejected")
)

// Job queued mail request
type Job struct {
	Kind Kind   `json:"kind"`
	To   string `json:"to"`
	Name string `json:"name"`
	Link string `json:"link,omitempty"`
}

// Validate checks the job is complete for its kind
func (j Job) Validate() error {
	if j.To == "" {
		return ErrInvalidJob
	}
	switch j.Kind {
	case KindVerification, KindResetPassword:
		if j.Link == "" {
			return ErrInvalidJob
		}
	case KindPasswordUpdated:
	default:
		return ErrInvalidJob
	}
	return nil
}

// Message rendered mail ready to send
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}
