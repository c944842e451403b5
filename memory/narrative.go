package memory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Defaults mirrored from the club application's memory configuration.
const (
	DefaultMaxTransactions = 20000
	DefaultNotableTxLimit  = 8
	DefaultCurrency        = "INR"
)

// DisplayName formats an account reference for narratives. Unresolved
// accounts degrade to UNKNOWN rather than failing the build.
func DisplayName(account *AccountLite) string {
	if account == nil {
		return "UNKNOWN"
	}
	name := account.FirstName
	if account.LastName != "" {
		name += " " + account.LastName
	}
	return fmt.Sprintf("%s(%s, id=%s)", account.Type, strings.TrimSpace(name), account.ID)
}

// AccountNarrative renders an account into a fixed-order sentence used as
// embedding input. Pure: identical input yields byte-identical output.
func AccountNarrative(account AccountLite) string {
	name := account.FirstName
	if account.LastName != "" {
		name += " " + account.LastName
	}
	name = strings.TrimSpace(name)

	email := ""
	if account.Email != "" {
		email = fmt.Sprintf(" Email: %s.", account.Email)
	}
	phone := ""
	if account.Phone != "" {
		phone = fmt.Sprintf(" Phone: %s.", account.Phone)
	}

	return fmt.Sprintf(
		"ACCOUNT %s(%s, id=%s): Status=%s. Role=%s. AccessLevel=%s. Username=%s.%s%s StartedAt=%s. CreatedAt=%s.",
		account.Type, name, account.ID,
		account.Status, account.Role, account.AccessLevel, account.Username,
		email, phone,
		account.StartedAt.UTC().Format("2006-01-02"),
		account.CreatedAt.UTC().Format("2006-01-02"),
	)
}

// TxNarrative renders a transaction into a single line, resolving both
// parties through the account lookup table. Optional reference, tags and
// description appear only when present.
func TxNarrative(tx TxLite, accByID map[string]AccountLite) string {
	date := tx.OccurredAt.UTC().Format("2006-01-02")
	from := displayNameByID(tx.FromID, accByID)
	to := displayNameByID(tx.ToID, accByID)

	ref := ""
	if tx.ReferenceID != "" {
		ref = fmt.Sprintf(" Ref: %s.", tx.ReferenceID)
	}
	tags := ""
	if len(tx.Tags) > 0 {
		encoded, _ := json.Marshal(tx.Tags)
		tags = fmt.Sprintf(" Tags: %s.", encoded)
	}
	note := ""
	if tx.Description != "" {
		note = fmt.Sprintf(" Note: %s.", tx.Description)
	}

	return fmt.Sprintf("TX %s on %s: %v %s. From %s to %s. Method %s.%s%s%s",
		tx.Type, date, tx.Amount, tx.Currency, from, to, tx.Method, ref, tags, note)
}

func displayNameByID(id string, accByID map[string]AccountLite) string {
	if acc, ok := accByID[id]; ok {
		return DisplayName(&acc)
	}
	return "UNKNOWN"
}

// MonthKey returns the YYYY-MM bucket key for a date, in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// BuildMonthlySummaries groups transactions into per-(member, month) buckets
// and emits one summary Document per non-empty bucket. Only participants of
// type MEMBER are rolled up; vendor-side participation is excluded by
// domain policy.
//
// Inflow and outflow are computed independently per transaction: a
// self-transfer contributes the full amount to both sums.
func BuildMonthlySummaries(transactions []TxLite, accByID map[string]AccountLite) []Document {
	buckets := make(map[string]*MonthlySummaryBucket)
	var order []string

	for _, tx := range transactions {
		for i, partyID := range []string{tx.FromID, tx.ToID} {
			// A self-transfer names the same member twice; bucket it once.
			if i == 1 && tx.ToID == tx.FromID {
				continue
			}
			account, ok := accByID[partyID]
			if !ok || account.Type != AccountMember {
				continue
			}

			ym := MonthKey(tx.OccurredAt)
			key := partyID + ":" + ym
			bucket, ok := buckets[key]
			if !ok {
				bucket = &MonthlySummaryBucket{MemberID: partyID, YearMonth: ym}
				buckets[key] = bucket
				order = append(order, key)
			}
			bucket.Txs = append(bucket.Txs, tx)
		}
	}

	docs := make([]Document, 0, len(order))
	for _, key := range order {
		bucket := buckets[key]
		member, ok := accByID[bucket.MemberID]
		if !ok {
			continue
		}

		currency := DefaultCurrency
		if len(bucket.Txs) > 0 && bucket.Txs[0].Currency != "" {
			currency = bucket.Txs[0].Currency
		}

		totalsByType := make(map[string]float64)
		var inflow, outflow float64
		for _, tx := range bucket.Txs {
			totalsByType[tx.Type] += tx.Amount
			if tx.ToID == bucket.MemberID {
				inflow += tx.Amount
			}
			if tx.FromID == bucket.MemberID {
				outflow += tx.Amount
			}
		}

		var notable []string
		for _, tx := range bucket.Txs {
			if tx.Description == "" && len(tx.Tags) == 0 {
				continue
			}
			line := fmt.Sprintf("- %s %v %s on %s", tx.Type, tx.Amount, tx.Currency,
				tx.OccurredAt.UTC().Format("2006-01-02"))
			if tx.Description != "" {
				line += fmt.Sprintf(" (%s)", tx.Description)
			}
			notable = append(notable, line)
			if len(notable) == DefaultNotableTxLimit {
				break
			}
		}

		text := fmt.Sprintf(
			"MONTH SUMMARY %s for %s: TxCount=%d. Inflow=%v %s. Outflow=%v %s. TotalsByType: %s.",
			bucket.YearMonth, DisplayName(&member), len(bucket.Txs),
			inflow, currency, outflow, currency, formatTotals(totalsByType))
		if len(notable) > 0 {
			text += "\nNotable entries:\n" + strings.Join(notable, "\n")
		}

		docs = append(docs, NewMonthlySummaryDocument(MonthSummaryMeta{
			MemberID:  bucket.MemberID,
			YearMonth: bucket.YearMonth,
			TxCount:   len(bucket.Txs),
			Inflow:    inflow,
			Outflow:   outflow,
			Currency:  currency,
		}, text))
	}

	return docs
}

// formatTotals renders per-type totals sorted descending by amount, with a
// stable name tiebreak for reproducible output.
func formatTotals(totals map[string]float64) string {
	type entry struct {
		txType string
		sum    float64
	}
	entries := make([]entry, 0, len(totals))
	for t, sum := range totals {
		entries = append(entries, entry{t, sum})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].sum != entries[j].sum {
			return entries[i].sum > entries[j].sum
		}
		return entries[i].txType < entries[j].txType
	})

	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s=%v", e.txType, e.sum)
	}
	return strings.Join(parts, ", ")
}
