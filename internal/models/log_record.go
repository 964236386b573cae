package models

import "time"

// LogRecord is a single ingested security event. Records are immutable once
// stored; identity is assigned by the log store in insertion order and the
// detection engine relies on that order being chronological.
type LogRecord struct {
	ID        int64                  `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type"`
	User      string                 `json:"user,omitempty"`
	Origin    string                 `json:"origin,omitempty"`
	IP        string                 `json:"ip,omitempty"`
	Raw       map[string]interface{} `json:"raw,omitempty"`
}

// Well-known record types the detection rules care about. Type is free-form;
// anything else passes through detection untouched.
const (
	RecordTypeLogin       = "login"
	RecordTypeFailedLogin = "failed_login"
)
