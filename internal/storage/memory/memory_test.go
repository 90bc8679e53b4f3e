package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
	"github.com/kimbucha/roomiesBolt-sub000/internal/storage"
)

func TestKVAccounts(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewKVAccounts(NewKV())

	acct := models.NewAccount("Maya@Example.com", "Maya", "hash")
	acct.University = "UT"
	require.NoError(t, repo.SaveAccount(ctx, acct))

	got, err := repo.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "UT", got.University)

	byEmail, err := repo.GetAccountByEmail(ctx, "maya@example.com ")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, byEmail.ID)

	// Changing the email moves the index entry.
	acct.Email = "maya@new.com"
	require.NoError(t, repo.SaveAccount(ctx, acct))
	_, err = repo.GetAccountByEmail(ctx, "maya@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repo.GetAccountByEmail(ctx, "maya@new.com")
	assert.NoError(t, err)

	other := models.NewAccount("sam@example.com", "Sam", "hash")
	require.NoError(t, repo.SaveAccount(ctx, other))

	all, err := repo.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = repo.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestKVAccounts_EmailIndexOwnedByOneAccount(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewKVAccounts(NewKV())

	victim := models.NewAccount("victim@example.com", "Victim", "hash")
	require.NoError(t, repo.SaveAccount(ctx, victim))
	attacker := models.NewAccount("attacker@example.com", "Attacker", "hash")
	require.NoError(t, repo.SaveAccount(ctx, attacker))

	attacker.Email = "Victim@Example.com"
	assert.ErrorIs(t, repo.SaveAccount(ctx, attacker), storage.ErrEmailTaken)

	owner, err := repo.GetAccountByEmail(ctx, "victim@example.com")
	require.NoError(t, err)
	assert.Equal(t, victim.ID, owner.ID)

	stored, err := repo.GetAccount(ctx, attacker.ID)
	require.NoError(t, err)
	assert.Equal(t, "attacker@example.com", stored.Email)

	// Saving an account under its own email is always allowed.
	victim.Bio = "hi"
	assert.NoError(t, repo.SaveAccount(ctx, victim))
}

func TestKV_KeysSortedByPrefix(t *testing.T) {
	ctx := context.Background()
	kv := NewKV()
	for _, k := range []string{"b:2", "a:1", "b:1", "c"} {
		require.NoError(t, kv.Set(ctx, k, []byte("v")))
	}

	keys, err := kv.Keys(ctx, "b:")
	require.NoError(t, err)
	assert.Equal(t, []string{"b:1", "b:2"}, keys)

	require.NoError(t, kv.Delete(ctx, "b:1"))
	require.NoError(t, kv.Delete(ctx, "never-set"))
	_, err = kv.Get(ctx, "b:1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDiscoveryStore(t *testing.T) {
	ctx := context.Background()
	s := NewDiscoveryStore()

	_, err := s.GetDiscovery(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.PutDiscovery(ctx, &models.DiscoveryRecord{ID: "u1", Name: "A", UpdatedAt: 10}))
	require.NoError(t, s.PutDiscovery(ctx, &models.DiscoveryRecord{ID: "u2", Name: "B", UpdatedAt: 30}))
	require.NoError(t, s.PutDiscovery(ctx, &models.DiscoveryRecord{ID: "u3", Name: "C", UpdatedAt: 20}))
	require.NoError(t, s.PutDiscovery(ctx, &models.DiscoveryRecord{ID: "u1", Name: "A2", UpdatedAt: 10}))

	got, err := s.GetDiscovery(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Name)

	list, err := s.ListDiscovery(ctx, storage.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "u2", list[0].ID)
	assert.Equal(t, "u3", list[1].ID)

	paged, err := s.ListDiscovery(ctx, storage.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "u3", paged[0].ID)

	empty, err := s.ListDiscovery(ctx, storage.ListOptions{Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, empty)

	excluded, err := s.ListDiscovery(ctx, storage.ListOptions{Limit: 1, Offset: 1, ExcludeID: "u2"})
	require.NoError(t, err)
	require.Len(t, excluded, 1)
	assert.Equal(t, "u1", excluded[0].ID)
}
