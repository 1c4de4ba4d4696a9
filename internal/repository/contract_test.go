package repository

import (
	"context"
	"errors"
	"testing"

	"user-management-app/internal/apperror"
	"user-management-app/internal/entity"
)

// testUserRepository runs the behaviour every UserRepository must share.
func testUserRepository(t *testing.T, repo UserRepository) {
	t.Helper()
	ctx := context.Background()

	created, err := repo.Create(ctx, entity.UserInput{Name: "Jane Doe", Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 {
		t.Fatal("Create() did not assign an id")
	}
	if created.Name != "Jane Doe" || created.Email != "jane@example.com" {
		t.Errorf("Create() = %+v", created)
	}

	second, err := repo.Create(ctx, entity.UserInput{Name: "John Roe", Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("Create() with duplicate email error = %v", err)
	}
	if second.ID == created.ID {
		t.Errorf("Create() reused id %d", second.ID)
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 || users[0].ID != created.ID || users[1].ID != second.ID {
		t.Errorf("List() = %+v, want both users in id order", users)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if *got != *created {
		t.Errorf("GetByID() = %+v, want %+v", got, created)
	}

	updated, err := repo.Update(ctx, created.ID, entity.UserInput{Name: "Jane Smith", Email: "smith@example.com"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.ID != created.ID || updated.Name != "Jane Smith" || updated.Email != "smith@example.com" {
		t.Errorf("Update() = %+v", updated)
	}

	// Same values again must not be mistaken for a missing row.
	if _, err := repo.Update(ctx, created.ID, entity.UserInput{Name: "Jane Smith", Email: "smith@example.com"}); err != nil {
		t.Errorf("Update() with unchanged values error = %v", err)
	}

	deleted, err := repo.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted.ID != created.ID || deleted.Name != "Jane Smith" {
		t.Errorf("Delete() = %+v", deleted)
	}

	if _, err := repo.GetByID(ctx, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want not found", err)
	}
	if _, err := repo.Delete(ctx, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want not found", err)
	}
	if _, err := repo.Update(ctx, created.ID, entity.UserInput{Name: "Ghost", Email: "g@example.com"}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() of deleted user error = %v, want not found", err)
	}

	third, err := repo.Create(ctx, entity.UserInput{Name: "New One", Email: "new@example.com"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if third.ID == created.ID || third.ID == second.ID {
		t.Errorf("Create() returned previously used id %d", third.ID)
	}

	if err := repo.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
