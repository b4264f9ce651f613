package dto

import "time"

type HeadInfo struct {
	ID        string
	Label     string
	StartedAt time.Time
}

type StartHeadInput struct {
	ID    string
	Label string
	State any
}
