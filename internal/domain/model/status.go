package model

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusOnline  Status = "ONLINE"
	StatusOffline Status = "OFFLINE"
)

// ParseStatus accepts any letter case. An empty string yields StatusOnline.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(StatusOnline):
		return StatusOnline, nil
	case string(StatusOffline):
		return StatusOffline, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	return s == StatusOnline || s == StatusOffline
}
