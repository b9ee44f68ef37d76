package model

import "time"

// User roles.
const (
	UserRoleStandard = "standard"
	UserRoleAdmin    = "admin"
)

// Organization member roles, highest privilege first.
const (
	OrgRoleAdmin          = "org_admin"
	OrgRoleProjectManager = "project_manager"
	OrgRoleEditor         = "editor"
	OrgRoleViewer         = "viewer"
)

// ValidOrgRoles defines allowed organization member roles.
var ValidOrgRoles = map[string]bool{
	OrgRoleAdmin:          true,
	OrgRoleProjectManager: true,
	OrgRoleEditor:         true,
	OrgRoleViewer:         true,
}

// Invitation statuses.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRevoked  = "revoked"
	InvitationExpired  = "expired"
)

// ValidInvitationStatuses defines allowed invitation statuses.
var ValidInvitationStatuses = map[string]bool{
	InvitationPending:  true,
	InvitationAccepted: true,
	InvitationRevoked:  true,
	InvitationExpired:  true,
}

// Asset criticality levels.
const (
	CriticalityLow      = "low"
	CriticalityMedium   = "medium"
	CriticalityHigh     = "high"
	CriticalityCritical = "critical"
)

// ValidCriticalities defines allowed asset criticality levels.
var ValidCriticalities = map[string]bool{
	CriticalityLow:      true,
	CriticalityMedium:   true,
	CriticalityHigh:     true,
	CriticalityCritical: true,
}

// Control types.
const (
	ControlPrevention = "prevention"
	ControlDetection  = "detection"
)

// ValidControlTypes defines allowed control types.
var ValidControlTypes = map[string]bool{
	ControlPrevention: true,
	ControlDetection:  true,
}

// Action statuses.
const (
	ActionOpen       = "open"
	ActionInProgress = "in-progress"
	ActionCompleted  = "completed"
)

// ValidActionStatuses defines allowed action statuses.
var ValidActionStatuses = map[string]bool{
	ActionOpen:       true,
	ActionInProgress: true,
	ActionCompleted:  true,
}

// Default statuses assigned on create when the caller leaves them empty.
const (
	ProjectStatusActive      = "active"
	FailureModeStatusOpen    = "open"
	OrganizationPlanFree     = "free"
	DefaultProjectMemberRole = OrgRoleEditor
)

// User is an account that can sign in and own projects.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	IsSuperadmin bool      `json:"is_superadmin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is a bearer-token login. Expired sessions stay on disk until purged
// but are never returned by token lookup.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is no longer valid at now.
// A session expiring exactly at now is expired.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// RiskThresholds are the RPN band boundaries an organization uses.
// A zero value means "use the engine defaults".
type RiskThresholds struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
}

// OrganizationSettings holds per-organization configuration.
type OrganizationSettings struct {
	RPNThresholds *RiskThresholds `json:"rpn_thresholds,omitempty"`
}

// Organization is a tenant owning projects and members.
type Organization struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Slug      string               `json:"slug"`
	Plan      string               `json:"plan"`
	Settings  OrganizationSettings `json:"settings"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// OrganizationMember links a user to an organization with a role.
type OrganizationMember struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	Role           string    `json:"role"`
	JoinedAt       time.Time `json:"joined_at"`
}

// OrganizationInvitation is a pending offer for an email address to join.
type OrganizationInvitation struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expires_at"`
	InvitedBy      string    `json:"invited_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// Project is one FMEA study of a single asset.
// OrganizationID is empty for legacy projects not yet migrated to an organization.
type Project struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	AssetID        string    `json:"asset_id"`
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	CreatedBy      string    `json:"created_by"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProjectMember grants a user access to a single project.
type ProjectMember struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectGuestLink is a read-only share link for a project.
type ProjectGuestLink struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Tool is an entry in the shared analysis tool registry.
type Tool struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Asset is the equipment or system a project analyzes.
type Asset struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Context       string    `json:"context"`
	Criticality   string    `json:"criticality"`
	Standards     Standards `json:"standards"`
	History       string    `json:"history"`
	Configuration string    `json:"configuration"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Component is a part of the asset; failure modes hang off components.
type Component struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Function    string    `json:"function"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FailureMode is one way a component (or, for legacy rows, a project) can fail.
type FailureMode struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	ComponentID string    `json:"component_id"`
	ProcessStep string    `json:"process_step"`
	FailureMode string    `json:"failure_mode"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Cause is a reason a failure mode occurs, rated by occurrence (1-10).
type Cause struct {
	ID            string    `json:"id"`
	FailureModeID string    `json:"failure_mode_id"`
	Description   string    `json:"description"`
	Occurrence    int       `json:"occurrence"`
	CreatedAt     time.Time `json:"created_at"`
}

// Effect is a consequence of a failure mode, rated by severity (1-10).
type Effect struct {
	ID            string    `json:"id"`
	FailureModeID string    `json:"failure_mode_id"`
	Description   string    `json:"description"`
	Severity      int       `json:"severity"`
	CreatedAt     time.Time `json:"created_at"`
}

// Control is an existing safeguard, rated by detection (1-10, 10 = undetectable).
type Control struct {
	ID            string    `json:"id"`
	FailureModeID string    `json:"failure_mode_id"`
	Type          string    `json:"type"`
	Description   string    `json:"description"`
	Detection     int       `json:"detection"`
	Effectiveness string    `json:"effectiveness"`
	CreatedAt     time.Time `json:"created_at"`
}

// Action is a mitigation task. The post-action ratings are nil until the
// action has been carried out and re-assessed.
type Action struct {
	ID                   string    `json:"id"`
	FailureModeID        string    `json:"failure_mode_id"`
	Description          string    `json:"description"`
	Owner                string    `json:"owner"`
	DueDate              string    `json:"due_date"`
	Status               string    `json:"status"`
	PostActionSeverity   *int      `json:"post_action_severity"`
	PostActionOccurrence *int      `json:"post_action_occurrence"`
	PostActionDetection  *int      `json:"post_action_detection"`
	ActionTaken          string    `json:"action_taken"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Record ids, used by the generic collection helpers.

func (u User) RecordID() string                   { return u.ID }
func (s Session) RecordID() string                { return s.ID }
func (o Organization) RecordID() string           { return o.ID }
func (m OrganizationMember) RecordID() string     { return m.ID }
func (i OrganizationInvitation) RecordID() string { return i.ID }
func (p Project) RecordID() string                { return p.ID }
func (m ProjectMember) RecordID() string          { return m.ID }
func (l ProjectGuestLink) RecordID() string       { return l.ID }
func (t Tool) RecordID() string                   { return t.ID }
func (a Asset) RecordID() string                  { return a.ID }
func (c Component) RecordID() string              { return c.ID }
func (f FailureMode) RecordID() string            { return f.ID }
func (c Cause) RecordID() string                  { return c.ID }
func (e Effect) RecordID() string                 { return e.ID }
func (c Control) RecordID() string                { return c.ID }
func (a Action) RecordID() string                 { return a.ID }
