package database

import (
	"time"
)

// Article statuses. A pending article may move to approved or rejected,
// never backwards.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Article source types.
const (
	SourceTypeAuto   = "auto"
	SourceTypeManual = "manual"
)

// Article represents a cached article record in the database.
type Article struct {
	ID          string // Database UUID
	Title       string
	Description string
	Content     string
	ImageURL    string
	PublishedAt *time.Time
	SourceName  string
	SourceURL   string
	CachedAt    time.Time
	IsActive    bool
	SourceType  string // auto or manual
	Status      string // pending, approved, rejected
	ReviewedBy  *string
	ReviewedAt  *time.Time
	AddedBy     *string
}

// DailyQuota tracks metered fetch attempts for one calendar date.
type DailyQuota struct {
	RequestDate  time.Time
	RequestCount int
}

// FetchRun is an audit record for one admin-triggered ingestion batch.
type FetchRun struct {
	ID            string
	RequestedBy   string
	RequestedAt   time.Time
	FetchedCount  int
	ApprovedCount int
	RejectedCount int
}
