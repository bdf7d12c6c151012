package domain

// ApplicationStatus represents the lifecycle state of a certification application.
type ApplicationStatus string

const (
	ApplicationStatusDraft       ApplicationStatus = "DRAFT"
	ApplicationStatusSubmitted   ApplicationStatus = "SUBMITTED"
	ApplicationStatusUnderReview ApplicationStatus = "UNDER_REVIEW"
	ApplicationStatusApproved    ApplicationStatus = "APPROVED"
	ApplicationStatusRejected    ApplicationStatus = "REJECTED"
	ApplicationStatusIssued      ApplicationStatus = "ISSUED"
)

func (s ApplicationStatus) String() string { return string(s) }

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusDraft, ApplicationStatusSubmitted, ApplicationStatusUnderReview,
		ApplicationStatusApproved, ApplicationStatusRejected, ApplicationStatusIssued:
		return true
	}
	return false
}

// IsTerminal reports whether no transition ever leaves this status.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusRejected || s == ApplicationStatusIssued
}

// CertificateStatus represents the stored or derived state of a certificate.
// EXPIRED is never written to storage; it is derived from expires_at at read time.
type CertificateStatus string

const (
	CertificateStatusActive  CertificateStatus = "ACTIVE"
	CertificateStatusExpired CertificateStatus = "EXPIRED"
	CertificateStatusRevoked CertificateStatus = "REVOKED"
)

func (s CertificateStatus) String() string { return string(s) }

func (s CertificateStatus) IsValid() bool {
	switch s {
	case CertificateStatusActive, CertificateStatusExpired, CertificateStatusRevoked:
		return true
	}
	return false
}

// Role represents the party's role on an application.
type Role string

const (
	RoleApplicant Role = "APPLICANT"
	RoleCertifier Role = "CERTIFIER"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	return r == RoleApplicant || r == RoleCertifier
}

// AssessmentLevel is the applicant's self-assessment of one criterion.
type AssessmentLevel string

const (
	AssessmentLevelYes     AssessmentLevel = "YES"
	AssessmentLevelPartial AssessmentLevel = "PARTIAL"
	AssessmentLevelNo      AssessmentLevel = "NO"
)

func (l AssessmentLevel) String() string { return string(l) }

func (l AssessmentLevel) IsValid() bool {
	switch l {
	case AssessmentLevelYes, AssessmentLevelPartial, AssessmentLevelNo:
		return true
	}
	return false
}

// DecisionAction is the certifier's verdict on an application.
type DecisionAction string

const (
	DecisionActionApprove DecisionAction = "APPROVE"
	DecisionActionReject  DecisionAction = "REJECT"
)

func (a DecisionAction) String() string { return string(a) }

func (a DecisionAction) IsValid() bool {
	return a == DecisionActionApprove || a == DecisionActionReject
}

// ReviewEntryKind distinguishes discussion messages from file attachments
// in the criterion review ledger.
type ReviewEntryKind string

const (
	ReviewEntryKindComment ReviewEntryKind = "COMMENT"
	ReviewEntryKindFile    ReviewEntryKind = "FILE"
)

func (k ReviewEntryKind) String() string { return string(k) }

func (k ReviewEntryKind) IsValid() bool {
	return k == ReviewEntryKindComment || k == ReviewEntryKindFile
}

// EntityType identifies the entity an audit record refers to.
type EntityType string

const (
	EntityTypeApplication EntityType = "APPLICATION"
	EntityTypeCertificate EntityType = "CERTIFICATE"
	EntityTypeReviewEntry EntityType = "REVIEW_ENTRY"
)

func (t EntityType) String() string { return string(t) }

// AuditAction identifies what happened to the entity.
type AuditAction string

const (
	AuditActionCreate      AuditAction = "CREATE"
	AuditActionSubmit      AuditAction = "SUBMIT"
	AuditActionBeginReview AuditAction = "BEGIN_REVIEW"
	AuditActionApprove     AuditAction = "APPROVE"
	AuditActionReject      AuditAction = "REJECT"
	AuditActionIssue       AuditAction = "ISSUE"
	AuditActionRevoke      AuditAction = "REVOKE"
	AuditActionComment     AuditAction = "COMMENT"
	AuditActionAttach      AuditAction = "ATTACH"
)

func (a AuditAction) String() string { return string(a) }

// NotificationTemplate names the message template the external sender renders.
type NotificationTemplate string

const (
	TemplateApplicationSubmitted NotificationTemplate = "APPLICATION_SUBMITTED"
	TemplateApplicationApproved  NotificationTemplate = "APPLICATION_APPROVED"
	TemplateApplicationRejected  NotificationTemplate = "APPLICATION_REJECTED"
	TemplateCertificateIssued    NotificationTemplate = "CERTIFICATE_ISSUED"
	TemplateCertificateRevoked   NotificationTemplate = "CERTIFICATE_REVOKED"
)

func (t NotificationTemplate) String() string { return string(t) }
