package enums

import "fmt"

// MessageStatus tracks contact messages and FAQ questions through moderation.
type MessageStatus string

const (
	MessageStatusNew     MessageStatus = "new"
	MessageStatusRead    MessageStatus = "read"
	MessageStatusReplied MessageStatus = "replied"
)

var validMessageStatuses = []MessageStatus{
	MessageStatusNew,
	MessageStatusRead,
	MessageStatusReplied,
}

// String implements fmt.Stringer.
func (m MessageStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MessageStatus.
func (m MessageStatus) IsValid() bool {
	for _, candidate := range validMessageStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMessageStatus converts raw input into a MessageStatus.
func ParseMessageStatus(value string) (MessageStatus, error) {
	for _, candidate := range validMessageStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid message status %q", value)
}

func (m MessageStatus) rank() int {
	switch m {
	case MessageStatusNew:
		return 0
	case MessageStatusRead:
		return 1
	case MessageStatusReplied:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether moving to next keeps the status monotonic.
// Replied is terminal and re-applying the current status is not a transition.
func (m MessageStatus) CanTransitionTo(next MessageStatus) bool {
	if !m.IsValid() || !next.IsValid() {
		return false
	}
	return next.rank() > m.rank()
}
