package domain

import "time"

// SubjectType identifies what kind of caller a token was issued to.
type SubjectType string

const (
	SubjectTypeClient SubjectType = "CLIENT"
)

// ClientRole gates the analysis endpoints.
type ClientRole string

const (
	// RoleAnalyst may submit snapshots and read reports.
	RoleAnalyst ClientRole = "ANALYST"
	// RoleOperator may additionally trigger source-backed runs.
	RoleOperator ClientRole = "OPERATOR"
)

// Token represents issued authentication token metadata.
type Token struct {
	Value     string     `json:"access_token"`
	SubjectID string     `json:"client_id"`
	Role      ClientRole `json:"role"`
	ExpiresAt time.Time  `json:"expires_at"`
}
