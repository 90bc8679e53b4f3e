package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
)

var _ AccountRepository = (*KVAccounts)(nil)

// KVAccounts is an AccountRepository that stores each account as JSON under
// "<StorageName>:<id>" and keeps an email index next to it.
type KVAccounts struct {
	kv KV
}

// NewKVAccounts creates an account repository on top of kv.
func NewKVAccounts(kv KV) *KVAccounts {
	return &KVAccounts{kv: kv}
}

const emailIndexSegment = "email:"

// AccountKey returns the key an account is stored under.
func AccountKey(id string) string {
	return StorageName + ":" + id
}

func emailKey(email string) string {
	return StorageName + ":" + emailIndexSegment + models.NormalizeEmail(email)
}

// GetAccount loads and decodes the account with id.
func (r *KVAccounts) GetAccount(ctx context.Context, id string) (*models.AccountRecord, error) {
	data, err := r.kv.Get(ctx, AccountKey(id))
	if err != nil {
		return nil, err
	}
	acct := &models.AccountRecord{}
	if err := json.Unmarshal(data, acct); err != nil {
		return nil, fmt.Errorf("failed to decode account %s: %w", id, err)
	}
	return acct, nil
}

// GetAccountByEmail resolves the email index and loads the account.
func (r *KVAccounts) GetAccountByEmail(ctx context.Context, email string) (*models.AccountRecord, error) {
	id, err := r.kv.Get(ctx, emailKey(email))
	if err != nil {
		return nil, err
	}
	return r.GetAccount(ctx, string(id))
}

// SaveAccount encodes acct and updates the email index. A changed email
// drops the old index entry. It returns ErrEmailTaken, and writes nothing,
// when the email is indexed to another account.
func (r *KVAccounts) SaveAccount(ctx context.Context, acct *models.AccountRecord) error {
	if acct.ID == "" {
		return errors.New("account has no id")
	}

	if acct.Email != "" {
		owner, err := r.kv.Get(ctx, emailKey(acct.Email))
		switch {
		case err == nil && string(owner) != acct.ID:
			return ErrEmailTaken
		case err != nil && !errors.Is(err, ErrNotFound):
			return fmt.Errorf("failed to check email index: %w", err)
		}
	}

	prev, err := r.GetAccount(ctx, acct.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("failed to encode account %s: %w", acct.ID, err)
	}
	if err := r.kv.Set(ctx, AccountKey(acct.ID), data); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	if prev != nil && prev.Email != "" && models.NormalizeEmail(prev.Email) != models.NormalizeEmail(acct.Email) {
		if err := r.kv.Delete(ctx, emailKey(prev.Email)); err != nil {
			return fmt.Errorf("failed to drop email index: %w", err)
		}
	}
	if acct.Email != "" {
		if err := r.kv.Set(ctx, emailKey(acct.Email), []byte(acct.ID)); err != nil {
			return fmt.Errorf("failed to index email: %w", err)
		}
	}
	return nil
}

// ListAccounts decodes every stored account.
func (r *KVAccounts) ListAccounts(ctx context.Context) ([]models.AccountRecord, error) {
	prefix := StorageName + ":"
	keys, err := r.kv.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	var accounts []models.AccountRecord
	for _, key := range keys {
		id := strings.TrimPrefix(key, prefix)
		if strings.HasPrefix(id, emailIndexSegment) {
			continue
		}
		acct, err := r.GetAccount(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}
	return accounts, nil
}
