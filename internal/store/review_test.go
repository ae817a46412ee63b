package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/models"
)

func testReview(userID, alcoholID uuid.UUID, rating int) *models.Review {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Review{
		ID: uuid.New(), UserID: userID, AlcoholID: alcoholID,
		Rating: rating, Body: "store test", CreatedAt: now, UpdatedAt: now,
	}
}

func TestReviewStoreCreateAndDelete(t *testing.T) {
	db := testDB(t)
	s := NewReviewStore(db)
	ctx := context.Background()
	author := testUser(t, db, "test-review-author@store-test.local")
	alcoholID := uuid.New()

	r := testReview(author.ID, alcoholID, 4)
	if err := s.CreateReview(ctx, r); err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	if err := s.CreateReview(ctx, testReview(author.ID, alcoholID, 2)); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("second review: err = %v, want conflict", err)
	}

	page, total, err := s.ListByAlcohol(ctx, alcoholID, 10, 0)
	if err != nil {
		t.Fatalf("ListByAlcohol: %v", err)
	}
	if total != 1 || page[0].Author == nil || page[0].Author.DisplayName != "Tester" {
		t.Errorf("ListByAlcohol = %d, %+v", total, page)
	}

	deleted, err := s.DeleteReview(ctx, r.ID)
	if err != nil || deleted == nil || deleted.Rating != 4 {
		t.Fatalf("DeleteReview = %+v, %v", deleted, err)
	}
	deleted, err = s.DeleteReview(ctx, r.ID)
	if err != nil || deleted != nil {
		t.Errorf("second DeleteReview = %+v, %v, want nil", deleted, err)
	}
}

func TestReviewStoreReportOnce(t *testing.T) {
	db := testDB(t)
	s := NewReviewStore(db)
	ctx := context.Background()
	author := testUser(t, db, "test-report-author@store-test.local")
	reporter := testUser(t, db, "test-report-reporter@store-test.local")

	r := testReview(author.ID, uuid.New(), 1)
	if err := s.CreateReview(ctx, r); err != nil {
		t.Fatalf("CreateReview: %v", err)
	}

	ok, err := s.ReportReview(ctx, r.ID, reporter.ID)
	if err != nil || !ok {
		t.Fatalf("first report = %v, %v", ok, err)
	}
	ok, err = s.ReportReview(ctx, r.ID, reporter.ID)
	if err != nil || ok {
		t.Fatalf("second report = %v, %v, want false", ok, err)
	}
	got, _ := s.FindReview(ctx, r.ID)
	if got.ReportCount != 1 {
		t.Errorf("ReportCount = %d, want 1", got.ReportCount)
	}

	if ok, _ := s.VoteHelpful(ctx, r.ID, reporter.ID); !ok {
		t.Error("VoteHelpful should succeed once")
	}
	if err := s.WithdrawUserVotes(ctx, reporter.ID); err != nil {
		t.Fatalf("WithdrawUserVotes: %v", err)
	}
	got, _ = s.FindReview(ctx, r.ID)
	if got.ReportCount != 0 || got.HelpfulCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0 after withdrawal", got.ReportCount, got.HelpfulCount)
	}
	if ok, _ := s.UnvoteHelpful(ctx, r.ID, reporter.ID); ok {
		t.Error("UnvoteHelpful with no vote should report false")
	}
}

func TestReviewStoreBan(t *testing.T) {
	db := testDB(t)
	s := NewReviewStore(db)
	ctx := context.Background()
	author := testUser(t, db, "test-ban-author@store-test.local")
	admin := testUser(t, db, "test-ban-admin@store-test.local")

	r := testReview(author.ID, uuid.New(), 2)
	if err := s.CreateReview(ctx, r); err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM banned_reviews WHERE id = $1", r.ID) })

	removed, err := s.BanReview(ctx, r.ID, admin.ID, "abuse")
	if err != nil || removed == nil {
		t.Fatalf("BanReview = %+v, %v", removed, err)
	}
	if live, _ := s.FindReview(ctx, r.ID); live != nil {
		t.Error("banned review still live")
	}
	var reason string
	if err := db.QueryRow("SELECT reason FROM banned_reviews WHERE id = $1", r.ID).Scan(&reason); err != nil {
		t.Fatalf("archive row: %v", err)
	}
	if reason != "abuse" {
		t.Errorf("reason = %q", reason)
	}

	removed, err = s.BanReview(ctx, r.ID, admin.ID, "again")
	if err != nil || removed != nil {
		t.Errorf("second ban = %+v, %v, want nil", removed, err)
	}
}
