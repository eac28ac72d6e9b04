package schema

// SystemAuditLogTable represents the 'system.auditlog' table
type SystemAuditLogTable struct {
	Table          string
	ID             string
	OrganizationID string
	ActorID        string
	Action         string
	IPAddress      string
	UserAgent      string
	Metadata       string
	CreatedAt      string
}

var SystemAuditLog = SystemAuditLogTable{
	Table:          "system.auditlog",
	ID:             "id",
	OrganizationID: "organizationid",
	ActorID:        "actorid",
	Action:         "action",
	IPAddress:      "ipaddress",
	UserAgent:      "useragent",
	Metadata:       "metadata",
	CreatedAt:      "createdat",
}
