package repository

import (
	"context"
	"testing"
	"time"

	"charitydesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBankRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBankRepository(db)
	ctx := context.Background()

	second := &models.Bank{Name: "Second", AccountHolder: "Charity", IBAN: "DE89370400440532013000", DisplayOrder: 2}
	first := &models.Bank{Name: "First", AccountHolder: "Charity", IBAN: "GB29NWBK60161331926819", DisplayOrder: 1}
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))

	banks, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, "First", banks[0].Name)

	dup := &models.Bank{Name: "Dup", AccountHolder: "Charity", IBAN: "DE89370400440532013000"}
	err = repo.Create(ctx, dup)
	require.True(t, models.IsValidation(err))

	first.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, first))
	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.True(t, models.IsNotFound(repo.Delete(ctx, first.ID)))
	assert.True(t, models.IsNotFound(repo.Update(ctx, &models.Bank{ID: 999, Name: "x"})))
}

func TestBankRepository_DeleteDetachesDonations(t *testing.T) {
	db := setupTestDB(t)
	banks := NewBankRepository(db)
	donations := NewDonationRepository(db)
	ctx := context.Background()

	bank := &models.Bank{Name: "B", AccountHolder: "C", IBAN: "GB29NWBK60161331926819"}
	require.NoError(t, banks.Create(ctx, bank))
	d := &models.Donation{Kind: models.DonationKindDonation, Reference: "DON-1", FullName: "F", Email: "f@example.org", AmountCents: 500, BankID: &bank.ID}
	require.NoError(t, donations.Create(ctx, d))

	require.NoError(t, banks.Delete(ctx, bank.ID))
	got, err := donations.GetByReference(ctx, "DON-1")
	require.NoError(t, err)
	assert.Nil(t, got.BankID)
}

func TestDonationRepository_UnknownBank(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDonationRepository(db)
	missing := uint(404)

	err := repo.Create(context.Background(), &models.Donation{
		Kind: models.DonationKindDonation, Reference: "DON-2", FullName: "F", Email: "f@example.org", AmountCents: 100, BankID: &missing,
	})
	require.True(t, models.IsValidation(err))
}

func TestDonationRepository_ListByKind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDonationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Donation{Kind: models.DonationKindDonation, Reference: "R1", FullName: "A", Email: "a@example.org", AmountCents: 100}))
	require.NoError(t, repo.Create(ctx, &models.Donation{Kind: models.DonationKindMembership, Reference: "R2", FullName: "B", Email: "b@example.org"}))

	out, total, err := repo.List(ctx, DonationFilter{Kind: models.DonationKindMembership, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, out, 1)
	assert.Equal(t, "R2", out[0].Reference)

	_, err = repo.GetByReference(ctx, "nope")
	assert.True(t, models.IsNotFound(err))
}

func TestContactRepository_ReadFlow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	msg := &models.ContactMessage{Name: "N", Email: "n@example.org", Subject: "Volunteering", Message: "Hi"}
	require.NoError(t, repo.Create(ctx, msg))
	require.NoError(t, repo.Create(ctx, &models.ContactMessage{Name: "M", Email: "m@example.org", Subject: "S", Message: "M"}))

	_, total, err := repo.List(ctx, true, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	readAt := time.Now()
	require.NoError(t, repo.MarkRead(ctx, msg.ID, readAt))
	require.NoError(t, repo.MarkRead(ctx, msg.ID, readAt.Add(time.Hour)))

	got, err := repo.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReadAt)
	assert.WithinDuration(t, readAt, *got.ReadAt, time.Second, "first read time is kept")

	_, total, err = repo.List(ctx, true, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	require.NoError(t, repo.Delete(ctx, msg.ID))
	assert.True(t, models.IsNotFound(repo.Delete(ctx, msg.ID)))
}
