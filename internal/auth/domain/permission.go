package domain

import (
	"slices"
	"strings"
)

// Permission names a single RBAC capability.
type Permission string

// RoleAdministrator holds every permission regardless of the stored set.
const RoleAdministrator = "GRC Administrator"

// Compliance
const (
	PermCreateCompliance               Permission = "create_compliance"
	PermEditCompliance                 Permission = "edit_compliance"
	PermApproveCompliance              Permission = "approve_compliance"
	PermViewAllCompliance              Permission = "view_all_compliance"
	PermCompliancePerformanceAnalytics Permission = "compliance_performance_analytics"
)

// Policy and framework
const (
	PermCreatePolicy               Permission = "create_policy"
	PermEditPolicy                 Permission = "edit_policy"
	PermApprovePolicy              Permission = "approve_policy"
	PermCreateFramework            Permission = "create_framework"
	PermApproveFramework           Permission = "approve_framework"
	PermViewAllPolicy              Permission = "view_all_policy"
	PermPolicyPerformanceAnalytics Permission = "policy_performance_analytics"
)

// Audit
const (
	PermAssignAudit               Permission = "assign_audit"
	PermConductAudit              Permission = "conduct_audit"
	PermReviewAudit               Permission = "review_audit"
	PermViewAuditReports          Permission = "view_audit_reports"
	PermAuditPerformanceAnalytics Permission = "audit_performance_analytics"
)

// Risk
const (
	PermCreateRisk               Permission = "create_risk"
	PermEditRisk                 Permission = "edit_risk"
	PermApproveRisk              Permission = "approve_risk"
	PermAssignRisk               Permission = "assign_risk"
	PermEvaluateAssignedRisk     Permission = "evaluate_assigned_risk"
	PermViewAllRisk              Permission = "view_all_risk"
	PermRiskPerformanceAnalytics Permission = "risk_performance_analytics"
)

// Incident
const (
	PermCreateIncident               Permission = "create_incident"
	PermEditIncident                 Permission = "edit_incident"
	PermAssignIncident               Permission = "assign_incident"
	PermEvaluateAssignedIncident     Permission = "evaluate_assigned_incident"
	PermEscalateToRisk               Permission = "escalate_to_risk"
	PermViewAllIncident              Permission = "view_all_incident"
	PermIncidentPerformanceAnalytics Permission = "incident_performance_analytics"
)

// Event
const (
	PermCreateEvent               Permission = "create_event"
	PermEditEvent                 Permission = "edit_event"
	PermApproveEvent              Permission = "approve_event"
	PermRejectEvent               Permission = "reject_event"
	PermArchiveEvent              Permission = "archive_event"
	PermViewAllEvent              Permission = "view_all_event"
	PermViewModuleEvent           Permission = "view_module_event"
	PermEventPerformanceAnalytics Permission = "event_performance_analytics"
)

var allPermissions = []Permission{
	PermCreateCompliance, PermEditCompliance, PermApproveCompliance, PermViewAllCompliance,
	PermCompliancePerformanceAnalytics,
	PermCreatePolicy, PermEditPolicy, PermApprovePolicy, PermCreateFramework, PermApproveFramework,
	PermViewAllPolicy, PermPolicyPerformanceAnalytics,
	PermAssignAudit, PermConductAudit, PermReviewAudit, PermViewAuditReports, PermAuditPerformanceAnalytics,
	PermCreateRisk, PermEditRisk, PermApproveRisk, PermAssignRisk, PermEvaluateAssignedRisk, PermViewAllRisk,
	PermRiskPerformanceAnalytics,
	PermCreateIncident, PermEditIncident, PermAssignIncident, PermEvaluateAssignedIncident, PermEscalateToRisk,
	PermViewAllIncident, PermIncidentPerformanceAnalytics,
	PermCreateEvent, PermEditEvent, PermApproveEvent, PermRejectEvent, PermArchiveEvent, PermViewAllEvent,
	PermViewModuleEvent, PermEventPerformanceAnalytics,
}

// AllPermissions returns the full catalogue in a stable order.
func AllPermissions() []Permission {
	return slices.Clone(allPermissions)
}

// IsKnown reports whether p is in the catalogue.
func (p Permission) IsKnown() bool {
	return slices.Contains(allPermissions, p)
}

// ParsePermissions splits the space-delimited storage form, dropping unknown
// and duplicate entries.
func ParsePermissions(s string) []Permission {
	fields := strings.Fields(s)
	out := make([]Permission, 0, len(fields))
	for _, f := range fields {
		p := Permission(f)
		if !p.IsKnown() || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// JoinPermissions renders perms in storage form.
func JoinPermissions(perms []Permission) string {
	parts := make([]string, len(perms))
	for i, p := range perms {
		parts[i] = string(p)
	}
	return strings.Join(parts, " ")
}

// RBACEntry is the per-user authorization record.
type RBACEntry struct {
	UserID      int64
	Username    string
	Role        string
	Permissions []Permission
	IsActive    bool
}

// Effective returns the permissions the entry actually grants.
func (e RBACEntry) Effective() []Permission {
	switch {
	case !e.IsActive:
		return nil
	case e.Role == RoleAdministrator:
		return AllPermissions()
	default:
		return slices.Clone(e.Permissions)
	}
}

// Has reports whether the entry grants p.
func (e RBACEntry) Has(p Permission) bool {
	if !e.IsActive {
		return false
	}
	if e.Role == RoleAdministrator {
		return p.IsKnown()
	}
	return slices.Contains(e.Permissions, p)
}
