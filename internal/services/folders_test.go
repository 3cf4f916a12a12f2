package services

import (
	"context"
	"testing"

	"github.com/cloudary/backend/internal/models"
	"github.com/google/uuid"
)

func TestFolderService_Create(t *testing.T) {
	db := setupDB(t)
	svc := NewFolderService(db, newFakeStore())
	ctx := context.Background()

	owner := createUser(t, db, "Owner", "owner@example.com")

	t.Run("creates root folder", func(t *testing.T) {
		folder, err := svc.Create(ctx, "Documents", nil, owner.ID)
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if folder.ParentID != nil {
			t.Error("expected nil parent for root folder")
		}
		if folder.Deleted {
			t.Error("expected new folder to not be deleted")
		}
	})

	t.Run("creates subfolder under own parent", func(t *testing.T) {
		parent := createFolder(t, db, owner.ID, "Parent", nil)
		child, err := svc.Create(ctx, "Child", &parent.ID, owner.ID)
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if child.ParentID == nil || *child.ParentID != parent.ID {
			t.Error("expected child to reference parent")
		}
	})

	t.Run("rejects missing parent", func(t *testing.T) {
		missing := uuid.New()
		if _, err := svc.Create(ctx, "Orphan", &missing, owner.ID); err != ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rejects another user's folder as parent", func(t *testing.T) {
		stranger := createUser(t, db, "Stranger", "stranger@example.com")
		theirs := createFolder(t, db, stranger.ID, "Theirs", nil)

		if _, err := svc.Create(ctx, "Sneaky", &theirs.ID, owner.ID); err != ErrNotFound {
			t.Fatalf("expected ErrNotFound for cross-owner parent, got %v", err)
		}
	})
}

func TestFolderService_Listing(t *testing.T) {
	db := setupDB(t)
	svc := NewFolderService(db, newFakeStore())
	ctx := context.Background()

	owner := createUser(t, db, "Owner", "owner@example.com")
	other := createUser(t, db, "Other", "other@example.com")

	rootA := createFolder(t, db, owner.ID, "A", nil)
	createFolder(t, db, owner.ID, "B", nil)
	child := createFolder(t, db, owner.ID, "A-child", &rootA.ID)
	createFolder(t, db, other.ID, "other-root", nil)

	trashed := createFolder(t, db, owner.ID, "trashed", nil)
	if _, err := svc.SoftDelete(ctx, trashed.ID, owner.ID); err != nil {
		t.Fatalf("SoftDelete returned error: %v", err)
	}

	t.Run("root listing is owner scoped and excludes trash", func(t *testing.T) {
		folders, err := svc.ListRoot(ctx, owner.ID)
		if err != nil {
			t.Fatalf("ListRoot returned error: %v", err)
		}
		if len(folders) != 2 {
			t.Fatalf("expected 2 root folders, got %d", len(folders))
		}
		for _, f := range folders {
			if f.ID == trashed.ID {
				t.Error("trashed folder leaked into root listing")
			}
			if f.ID == child.ID {
				t.Error("subfolder leaked into root listing")
			}
		}
	})

	t.Run("children listing", func(t *testing.T) {
		folders, err := svc.ListChildren(ctx, rootA.ID, owner.ID)
		if err != nil {
			t.Fatalf("ListChildren returned error: %v", err)
		}
		if len(folders) != 1 || folders[0].ID != child.ID {
			t.Fatalf("expected only the child folder, got %+v", folders)
		}
	})

	t.Run("trash listing", func(t *testing.T) {
		folders, err := svc.ListTrash(ctx, owner.ID)
		if err != nil {
			t.Fatalf("ListTrash returned error: %v", err)
		}
		if len(folders) != 1 || folders[0].ID != trashed.ID {
			t.Fatalf("expected only the trashed folder, got %+v", folders)
		}
	})
}

func TestFolderService_RenameAndTrashLifecycle(t *testing.T) {
	db := setupDB(t)
	svc := NewFolderService(db, newFakeStore())
	ctx := context.Background()

	owner := createUser(t, db, "Owner", "owner@example.com")
	stranger := createUser(t, db, "Stranger", "stranger@example.com")
	folder := createFolder(t, db, owner.ID, "old-name", nil)

	t.Run("rename", func(t *testing.T) {
		renamed, err := svc.Rename(ctx, folder.ID, owner.ID, "new-name")
		if err != nil {
			t.Fatalf("Rename returned error: %v", err)
		}
		if renamed.Name != "new-name" {
			t.Errorf("expected new-name, got %s", renamed.Name)
		}
	})

	t.Run("rename by non owner is not found", func(t *testing.T) {
		if _, err := svc.Rename(ctx, folder.ID, stranger.ID, "stolen"); err != ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("soft delete then restore", func(t *testing.T) {
		trashed, err := svc.SoftDelete(ctx, folder.ID, owner.ID)
		if err != nil {
			t.Fatalf("SoftDelete returned error: %v", err)
		}
		if !trashed.Deleted {
			t.Error("expected Deleted=true after soft delete")
		}

		restored, err := svc.Restore(ctx, folder.ID, owner.ID)
		if err != nil {
			t.Fatalf("Restore returned error: %v", err)
		}
		if restored.Deleted {
			t.Error("expected Deleted=false after restore")
		}
	})

	t.Run("soft delete of unknown folder is not found", func(t *testing.T) {
		if _, err := svc.SoftDelete(ctx, uuid.New(), owner.ID); err != ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestFolderService_DeleteRecursive(t *testing.T) {
	db := setupDB(t)
	store := newFakeStore()
	svc := NewFolderService(db, store)
	ctx := context.Background()

	owner := createUser(t, db, "Owner", "owner@example.com")

	// root -> {childA -> {grandchild}, childB}, files at every level
	root := createFolder(t, db, owner.ID, "root", nil)
	childA := createFolder(t, db, owner.ID, "childA", &root.ID)
	_ = createFolder(t, db, owner.ID, "childB", &root.ID)
	grandchild := createFolder(t, db, owner.ID, "grandchild", &childA.ID)

	fileRoot := createFile(t, db, owner.ID, "in-root.txt", &root.ID)
	fileA := createFile(t, db, owner.ID, "in-a.txt", &childA.ID)
	fileDeep := createFile(t, db, owner.ID, "deep.txt", &grandchild.ID)
	untouched := createFile(t, db, owner.ID, "untouched.txt", nil)

	for _, f := range []*models.File{fileRoot, fileA, fileDeep, untouched} {
		store.objects[f.ObjectName()] = []byte("data")
	}

	deleted, err := svc.DeleteRecursive(ctx, root.ID, owner.ID)
	if err != nil {
		t.Fatalf("DeleteRecursive returned error: %v", err)
	}
	if deleted != 4 {
		t.Errorf("expected 4 folders deleted, got %d", deleted)
	}

	var folderCount int64
	db.Model(&models.Folder{}).Where("owner_id = ?", owner.ID).Count(&folderCount)
	if folderCount != 0 {
		t.Errorf("expected no folders to survive, got %d", folderCount)
	}

	var fileCount int64
	db.Model(&models.File{}).Where("owner_id = ?", owner.ID).Count(&fileCount)
	if fileCount != 1 {
		t.Errorf("expected only the root-level file to survive, got %d", fileCount)
	}

	for _, f := range []*models.File{fileRoot, fileA, fileDeep} {
		if store.has(f.ObjectName()) {
			t.Errorf("expected blob %s to be removed", f.ObjectName())
		}
	}
	if !store.has(untouched.ObjectName()) {
		t.Error("expected unrelated blob to survive")
	}

	t.Run("second delete reports not found", func(t *testing.T) {
		if _, err := svc.DeleteRecursive(ctx, root.ID, owner.ID); err != ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("non owner cannot delete", func(t *testing.T) {
		stranger := createUser(t, db, "Stranger", "stranger@example.com")
		target := createFolder(t, db, owner.ID, "keep", nil)
		if _, err := svc.DeleteRecursive(ctx, target.ID, stranger.ID); err != ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		var count int64
		db.Model(&models.Folder{}).Where("id = ?", target.ID).Count(&count)
		if count != 1 {
			t.Error("expected folder to survive a stranger's delete attempt")
		}
	})
}
