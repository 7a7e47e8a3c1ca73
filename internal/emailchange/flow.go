package emailchange

import "time"

// Step is the position of a user in the email change flow.
type Step string

const (
	StepVerifyOld Step = "verify_old"
	StepEnterNew  Step = "enter_new"
	StepVerifyNew Step = "verify_new"
)

// Flow is the Redis-held state of one in-progress email change.
type Flow struct {
	Step      Step      `json:"step"`
	NewEmail  string    `json:"new_email,omitempty"`
	CodeHash  string    `json:"code_hash,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
	SentAt    time.Time `json:"sent_at"`
}

// issue stores the digest of a freshly sent code and resets the attempt count.
func (f *Flow) issue(digest string, now time.Time, ttl time.Duration) {
	f.CodeHash = digest
	f.Attempts = 0
	f.SentAt = now
	f.ExpiresAt = now.Add(ttl)
}

// burn invalidates the current code.
func (f *Flow) burn() {
	f.CodeHash = ""
	f.ExpiresAt = time.Time{}
}

func (f *Flow) codeLive(now time.Time) bool {
	return f.CodeHash != "" && now.Before(f.ExpiresAt)
}

func (f *Flow) resendAt(cooldown time.Duration) time.Time {
	return f.SentAt.Add(cooldown)
}
