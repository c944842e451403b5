package memory

import "time"

// AccountType distinguishes club members from external vendors.
type AccountType string

const (
	AccountMember AccountType = "MEMBER"
	AccountVendor AccountType = "VENDOR"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	StatusActive   AccountStatus = "ACTIVE"
	StatusInactive AccountStatus = "INACTIVE"
	StatusBlocked  AccountStatus = "BLOCKED"
	StatusClosed   AccountStatus = "CLOSED"
)

// AccessLevel is the account's permission tier on the club API.
type AccessLevel string

const (
	AccessRead  AccessLevel = "READ"
	AccessWrite AccessLevel = "WRITE"
	AccessAdmin AccessLevel = "ADMIN"
)

// Role is the account's organizational role.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleMember     Role = "MEMBER"
)

// AccountLite is an identity snapshot of a member or vendor, taken once per
// index build and shared read-only afterward via the account lookup table.
type AccountLite struct {
	ID          string
	FirstName   string
	LastName    string
	Type        AccountType
	Status      AccountStatus
	Email       string
	Username    string
	Phone       string
	AccessLevel AccessLevel
	Role        Role
	StartedAt   time.Time
	CreatedAt   time.Time
}

// TxLite is a financial transaction between two accounts. OccurredAt is the
// authoritative date for temporal reasoning.
type TxLite struct {
	ID          string
	FromID      string
	ToID        string
	Amount      float64
	Currency    string
	Type        string
	Method      string
	OccurredAt  time.Time
	ReferenceID string
	Description string
	Tags        []string
	CreatedByID string
}

// MonthlySummaryBucket accumulates the transactions touching one member in
// one calendar month. Transient: built during index construction and
// discarded once its document is emitted.
type MonthlySummaryBucket struct {
	MemberID  string
	YearMonth string
	Txs       []TxLite
}

// FetchParams filters a transaction fetch from the data source.
type FetchParams struct {
	Since time.Time
	Limit int
}
