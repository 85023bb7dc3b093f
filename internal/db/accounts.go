package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/classlive/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAccountNotFound is returned when a uid has no stored account.
var ErrAccountNotFound = errors.New("db: account not found")

// AddAccount inserts an account, replacing the name and cookie of an
// existing row with the same uid.
func AddAccount(db *gorm.DB, acct models.Account) error {
	acct.UID = strings.TrimSpace(acct.UID)
	if acct.UID == "" {
		return fmt.Errorf("db: add account: uid is required")
	}
	if acct.Cookie == "" {
		return fmt.Errorf("db: add account %s: cookie is required", acct.UID)
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "cookie", "updated_at"}),
	}).Create(&acct)
	if result.Error != nil {
		return fmt.Errorf("db: add account %s: %w", acct.UID, result.Error)
	}
	return nil
}

// ListAccounts returns all stored accounts ordered by uid.
func ListAccounts(db *gorm.DB) ([]models.Account, error) {
	var accts []models.Account
	if err := db.Order("uid").Find(&accts).Error; err != nil {
		return nil, fmt.Errorf("db: list accounts: %w", err)
	}
	return accts, nil
}

// AccountsByUIDs returns the accounts named in a comma-separated uid list,
// in list order. An empty list selects every account. Unknown uids fail
// with ErrAccountNotFound.
func AccountsByUIDs(db *gorm.DB, list string) ([]models.Account, error) {
	uids := SplitUIDs(list)
	if len(uids) == 0 {
		return ListAccounts(db)
	}

	var found []models.Account
	if err := db.Where("uid IN ?", uids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("db: select accounts: %w", err)
	}
	byUID := make(map[string]models.Account, len(found))
	for _, a := range found {
		byUID[a.UID] = a
	}

	accts := make([]models.Account, 0, len(uids))
	for _, uid := range uids {
		a, ok := byUID[uid]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, uid)
		}
		accts = append(accts, a)
	}
	return accts, nil
}

// RemoveAccount deletes the account with the given uid.
func RemoveAccount(db *gorm.DB, uid string) error {
	result := db.Where("uid = ?", uid).Delete(&models.Account{})
	if result.Error != nil {
		return fmt.Errorf("db: remove account %s: %w", uid, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, uid)
	}
	return nil
}

// SplitUIDs splits a comma-separated uid list, dropping blanks and
// duplicates while keeping first-seen order.
func SplitUIDs(list string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(list, ",") {
		uid := strings.TrimSpace(part)
		if uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true
		out = append(out, uid)
	}
	return out
}
