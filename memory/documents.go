package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document type discriminators.
const (
	DocTypeAccount      = "account"
	DocTypeTx           = "tx"
	DocTypeMonthSummary = "month_summary"
)

// DocMeta is the typed metadata attached to a Document. One concrete shape
// exists per docType; Label must be derivable without re-parsing the
// narrative text.
type DocMeta interface {
	DocType() string
	Label() string
}

// Document is the atomic unit of the searchable corpus: a narrative text
// body plus typed metadata.
type Document struct {
	ID   string
	Text string
	Meta DocMeta
}

// AccountMeta describes an account document.
type AccountMeta struct {
	AccountID   string
	AccountType AccountType
	Status      AccountStatus
	Role        Role
	AccessLevel AccessLevel
	Username    string
	Email       string
	Phone       string
	StartedAt   time.Time
	CreatedAt   time.Time
}

func (m AccountMeta) DocType() string { return DocTypeAccount }
func (m AccountMeta) Label() string {
	return fmt.Sprintf("ACCOUNT %s id=%s", m.AccountType, m.AccountID)
}

// TxMeta describes a transaction document.
type TxMeta struct {
	TxID         string
	FromID       string
	ToID         string
	PartyIDs     []string
	Type         string
	Method       string
	OccurredAt   time.Time
	OccurredAtTs int64
	Amount       float64
	Currency     string
	Tags         []string
	ReferenceID  string
	CreatedByID  string
}

func (m TxMeta) DocType() string { return DocTypeTx }
func (m TxMeta) Label() string {
	return fmt.Sprintf("TRANSACTION %s id=%s", m.Type, m.TxID)
}

// MonthSummaryMeta describes a per-member monthly rollup document.
type MonthSummaryMeta struct {
	MemberID  string
	YearMonth string
	TxCount   int
	Inflow    float64
	Outflow   float64
	Currency  string
}

func (m MonthSummaryMeta) DocType() string { return DocTypeMonthSummary }
func (m MonthSummaryMeta) Label() string {
	return fmt.Sprintf("MONTH SUMMARY %s member=%s", m.YearMonth, m.MemberID)
}

// NewAccountDocument wraps an account narrative into a Document.
func NewAccountDocument(account AccountLite) Document {
	return Document{
		ID:   uuid.New().String(),
		Text: AccountNarrative(account),
		Meta: AccountMeta{
			AccountID:   account.ID,
			AccountType: account.Type,
			Status:      account.Status,
			Role:        account.Role,
			AccessLevel: account.AccessLevel,
			Username:    account.Username,
			Email:       account.Email,
			Phone:       account.Phone,
			StartedAt:   account.StartedAt,
			CreatedAt:   account.CreatedAt,
		},
	}
}

// NewTransactionDocument wraps a transaction narrative into a Document.
// Party names are resolved through the account lookup table; unresolved ids
// render as UNKNOWN in the narrative but are kept verbatim in the metadata.
func NewTransactionDocument(tx TxLite, accByID map[string]AccountLite) Document {
	return Document{
		ID:   uuid.New().String(),
		Text: TxNarrative(tx, accByID),
		Meta: TxMeta{
			TxID:         tx.ID,
			FromID:       tx.FromID,
			ToID:         tx.ToID,
			PartyIDs:     []string{tx.FromID, tx.ToID},
			Type:         tx.Type,
			Method:       tx.Method,
			OccurredAt:   tx.OccurredAt,
			OccurredAtTs: tx.OccurredAt.UnixMilli(),
			Amount:       tx.Amount,
			Currency:     tx.Currency,
			Tags:         tx.Tags,
			ReferenceID:  tx.ReferenceID,
			CreatedByID:  tx.CreatedByID,
		},
	}
}

// NewMonthlySummaryDocument wraps a pre-rendered monthly summary into a
// Document.
func NewMonthlySummaryDocument(meta MonthSummaryMeta, text string) Document {
	return Document{
		ID:   uuid.New().String(),
		Text: text,
		Meta: meta,
	}
}
