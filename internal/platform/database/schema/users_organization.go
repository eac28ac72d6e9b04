package schema

// UserOrganizationTable represents the 'users.organization' table
type UserOrganizationTable struct {
	Table     string
	ID        string
	Name      string
	Slug      string
	IsActive  string
	CreatedAt string
	UpdatedAt string
}

// UserOrganization is the schema definition for users.organization
var UserOrganization = UserOrganizationTable{
	Table:     "users.organization",
	ID:        "id",
	Name:      "name",
	Slug:      "slug",
	IsActive:  "isactive",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}
