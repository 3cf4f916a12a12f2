package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/cloudary/backend/internal/models"
	"github.com/google/uuid"
)

func TestURLSigner_Decorate(t *testing.T) {
	store := newFakeStore()
	signer := NewURLSigner(store)
	ctx := context.Background()

	ownerID := uuid.New()

	t.Run("fills every file in a large batch", func(t *testing.T) {
		files := make([]models.File, 30)
		for i := range files {
			files[i] = models.File{
				BaseModel: models.BaseModel{ID: uuid.New()},
				Name:      fmt.Sprintf("file_%d.txt", i),
				OwnerID:   ownerID,
			}
		}

		signer.Decorate(ctx, files)

		for i, file := range files {
			want := "https://store.test/" + file.ObjectName() + "?signed=1"
			if file.SignedURL != want {
				t.Fatalf("file %d: got %q, want %q", i, file.SignedURL, want)
			}
		}
	})

	t.Run("a failing item stays empty without aborting the batch", func(t *testing.T) {
		files := []models.File{
			{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "good.txt", OwnerID: ownerID},
			{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "bad.txt", OwnerID: ownerID},
		}
		store.presignFails[files[1].ObjectName()] = true

		signer.Decorate(ctx, files)

		if files[0].SignedURL == "" {
			t.Error("expected the good file to be signed")
		}
		if files[1].SignedURL != "" {
			t.Errorf("expected the failing file to stay empty, got %q", files[1].SignedURL)
		}
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		signer.Decorate(ctx, nil)
	})

	t.Run("nil store is a no-op", func(t *testing.T) {
		files := []models.File{{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "x", OwnerID: ownerID}}
		NewURLSigner(nil).Decorate(ctx, files)
		if files[0].SignedURL != "" {
			t.Error("expected no URL with a nil store")
		}
	})
}
