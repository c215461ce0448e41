package datastore

import "time"

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// ScanRun is one scanner invocation.
type ScanRun struct {
	ID         uint   `gorm:"primaryKey"`
	UUID       string `gorm:"size:36;uniqueIndex"`
	Node       string `gorm:"size:128"`
	ModelType  string `gorm:"size:32"`
	ModelPath  string `gorm:"size:512"`
	Source     string `gorm:"size:512"` // archive list
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string `gorm:"size:16;index"`
	Detections int
}

// Detection is a stored phase pick.
type Detection struct {
	ID         uint      `gorm:"primaryKey"`
	ScanRunID  uint      `gorm:"index;not null"`
	Label      string    `gorm:"size:1;index"`
	Time       time.Time `gorm:"index"`
	Score      float32
	Amplitude  float32
	Archive    int
	TraceGroup int
	Batch      int
	Offset     int
	Traces     string `gorm:"size:1024"` // trace IDs separated by ";"
}
