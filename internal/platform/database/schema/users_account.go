package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table          string
	ID             string
	OrganizationID string
	Email          string
	Username       string
	FullName       string
	Password       string
	Role           string
	IsActive       string
	IsVerified     string
	LastLoginAt    string
	CreatedAt      string
	UpdatedAt      string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:          "users.account",
	ID:             "id",
	OrganizationID: "organizationid",
	Email:          "email",
	Username:       "username",
	FullName:       "fullname",
	Password:       "passwordhash",
	Role:           "role",
	IsActive:       "isactive",
	IsVerified:     "isverified",
	LastLoginAt:    "lastloginat",
	CreatedAt:      "createdat",
	UpdatedAt:      "updatedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.OrganizationID, t.Email, t.Username, t.FullName, t.Password,
		t.Role, t.IsActive, t.IsVerified, t.LastLoginAt, t.CreatedAt, t.UpdatedAt,
	}
}
