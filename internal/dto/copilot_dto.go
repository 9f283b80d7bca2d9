package dto

import "time"

type CopilotSyncRequest struct {
	Paths []string `json:"paths" validate:"required,min=1,dive,required"`
}

type CopilotFileDTO struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	URI         string `json:"uri"`
	MIMEType    string `json:"mime_type"`
	Fingerprint string `json:"fingerprint"`
	Uploaded    bool   `json:"uploaded"`
}

type CopilotSyncResponse struct {
	Files []CopilotFileDTO `json:"files"`
}

type CopilotLoadCacheRequest struct {
	Name string `json:"name" validate:"required"`
}

type CopilotCacheResponse struct {
	Name       string     `json:"name"`
	Model      string     `json:"model"`
	ExpireTime *time.Time `json:"expire_time,omitempty"`
	Files      int        `json:"files"`
	Reused     bool       `json:"reused"`
}

// CopilotPrepareRequest falls back to the configured file list when Paths
// is empty.
type CopilotPrepareRequest struct {
	Paths []string `json:"paths" validate:"omitempty,dive,required"`
}

type CopilotPrepareResponse struct {
	Files []CopilotFileDTO     `json:"files"`
	Cache CopilotCacheResponse `json:"cache"`
}

type CopilotAskRequest struct {
	Question string `json:"question" validate:"required"`
}

type CopilotAskResponse struct {
	Answer string `json:"answer"`
}

type CopilotStatusResponse struct {
	Model       string           `json:"model"`
	Registered  int              `json:"registered"`
	ActiveFiles []CopilotFileDTO `json:"active_files"`
	Cache       string           `json:"cache,omitempty"`
	Bound       bool             `json:"bound"`
}
