package domain

import "time"

// RunResult summarises one finished report-generation run.
type RunResult struct {
	RunID         string
	ArtifactPath  string
	Strategy      string
	PageCount     int
	ImagesFetched int
	ImagesFailed  int
	Elapsed       time.Duration
}

// InspectorProfile carries form-header fields that are not part of the
// uploaded inspection document (loaded from the profile registry).
type InspectorProfile struct {
	Name           string
	LicenseNumber  string
	SponsorName    string
	SponsorLicense string
}
