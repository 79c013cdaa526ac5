package models

import "github.com/ruchit878/smart-job-kit-generator/internal/qa"

// QADocument is the parsed interview Q&A for one report.
type QADocument struct {
	EventType   string    `json:"eventType"`
	ReportID    string    `json:"reportId"`
	GeneratedAt int64     `json:"generatedAt"`
	Pairs       []qa.Pair `json:"pairs"`
	Count       int       `json:"count"`
}
