package catalog

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/catalog/schema"
	"alcoholdb/internal/models"
)

// memCategories is an in-memory CategoryBackend without transactions.
type memCategories struct {
	mu          sync.Mutex
	cats        map[uuid.UUID]*models.Category
	validator   *schema.Validator
	version     int
	items       *memItems
	failInstall error
	installs    int
}

func newMemCategories(items *memItems) *memCategories {
	core := schema.CoreCategory()
	core.ID = uuid.New()
	return &memCategories{cats: map[uuid.UUID]*models.Category{core.ID: core}, items: items}
}

func (m *memCategories) ListCategories(context.Context) ([]*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Category, 0, len(m.cats))
	for _, c := range m.cats {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (m *memCategories) FindCategory(_ context.Context, id uuid.UUID) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cats[id]; ok {
		return c.Clone(), nil
	}
	return nil, nil
}

func (m *memCategories) FindCategoryByTitle(_ context.Context, title string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cats {
		if c.Title == title {
			return c.Clone(), nil
		}
	}
	return nil, nil
}

func (m *memCategories) InsertCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.cats {
		if e.Title == c.Title {
			return apperr.Conflict("category %q already exists", c.Title)
		}
	}
	m.cats[c.ID] = c.Clone()
	return nil
}

func (m *memCategories) SaveCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cats[c.ID] = c.Clone()
	return nil
}

func (m *memCategories) DeleteCategory(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cats, id)
	return nil
}

func (m *memCategories) InstallValidator(_ context.Context, v *schema.Validator) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installs++
	if m.failInstall != nil {
		return 0, m.failInstall
	}
	m.version++
	m.validator = v
	return m.version, nil
}

func (m *memCategories) CurrentValidator(context.Context) (*schema.Validator, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validator, m.version, nil
}

func (m *memCategories) CountItemsOfKind(_ context.Context, kind string) (int, error) {
	if m.items == nil {
		return 0, nil
	}
	return m.items.countKind(kind), nil
}

func (m *memCategories) StripItemFields(_ context.Context, kind string, fields []string) (int64, error) {
	if m.items == nil {
		return 0, nil
	}
	return m.items.strip(kind, fields), nil
}

// snapshot and restore give memTxCategories its rollback.
func (m *memCategories) snapshot() (map[uuid.UUID]*models.Category, *schema.Validator, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[uuid.UUID]*models.Category, len(m.cats))
	for k, v := range m.cats {
		cp[k] = v.Clone()
	}
	return cp, m.validator, m.version
}

func (m *memCategories) restore(cats map[uuid.UUID]*models.Category, v *schema.Validator, version int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cats, m.validator, m.version = cats, v, version
}

// memTxCategories adds all-or-nothing transactions to memCategories.
// Transactions run one at a time, as if every one locked the rows it read.
type memTxCategories struct {
	*memCategories
	txMu               sync.Mutex
	commits, rollbacks int
}

func (m *memTxCategories) WithinTx(_ context.Context, fn func(CategoryBackend) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	cats, v, version := m.snapshot()
	if err := fn(m.memCategories); err != nil {
		m.restore(cats, v, version)
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

// memItems is an in-memory ItemBackend.
type memItems struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.Alcohol
}

func newMemItems() *memItems {
	return &memItems{items: map[uuid.UUID]*models.Alcohol{}}
}

func (m *memItems) put(a *models.Alcohol) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[a.ID] = a
}

func (m *memItems) countKind(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.items {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

func (m *memItems) strip(kind string, fields []string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.items {
		if a.Kind != kind {
			continue
		}
		changed := false
		for _, f := range fields {
			if _, ok := a.Attributes[f]; ok {
				delete(a.Attributes, f)
				changed = true
			}
		}
		if changed {
			n++
		}
	}
	return n
}

func (m *memItems) ApplyRating(_ context.Context, id uuid.UUID, d models.RatingDelta) (*models.RatingStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	s := a.Stats().Apply(d)
	a.RateCount, a.RateValue, a.AvgRating = s.Count, s.Value, s.Avg
	return &s, nil
}

func (m *memItems) CreateItem(_ context.Context, a *models.Alcohol) error {
	m.put(a)
	return nil
}

func (m *memItems) FindItem(_ context.Context, id uuid.UUID) (*models.Alcohol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.items[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m *memItems) FindItemByBarcode(_ context.Context, code string) (*models.Alcohol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if slices.Contains(a.Barcodes, code) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memItems) FindItemByName(_ context.Context, name string) (*models.Alcohol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if strings.EqualFold(a.Name, name) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memItems) ListItems(_ context.Context, f models.AlcoholFilter) ([]*models.Alcohol, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Alcohol
	for _, a := range m.items {
		if f.Kind == "" || a.Kind == f.Kind {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *memItems) UpdateItem(_ context.Context, a *models.Alcohol) error {
	m.put(a)
	return nil
}

func (m *memItems) SetItemImage(_ context.Context, id uuid.UUID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.items[id]; ok {
		a.Image = key
	}
	return nil
}

func (m *memItems) DeleteItem(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	delete(m.items, id)
	return ok, nil
}

// memUsers is an in-memory RatingTarget for users.
type memUsers struct {
	mu    sync.Mutex
	stats map[uuid.UUID]models.RatingStats
}

func newMemUsers(ids ...uuid.UUID) *memUsers {
	m := &memUsers{stats: map[uuid.UUID]models.RatingStats{}}
	for _, id := range ids {
		m.stats[id] = models.RatingStats{}
	}
	return m
}

func (m *memUsers) ApplyRating(_ context.Context, id uuid.UUID, d models.RatingDelta) (*models.RatingStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[id]
	if !ok {
		return nil, nil
	}
	s = s.Apply(d)
	m.stats[id] = s
	return &s, nil
}

func (m *memUsers) get(id uuid.UUID) models.RatingStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats[id]
}

// memReviews is an in-memory ReviewStore.
type memReviews struct {
	mu        sync.Mutex
	reviews   map[uuid.UUID]*models.Review
	reporters map[uuid.UUID]map[uuid.UUID]bool
	voters    map[uuid.UUID]map[uuid.UUID]bool
	banned    []*models.BannedReview
}

func newMemReviews() *memReviews {
	return &memReviews{
		reviews:   map[uuid.UUID]*models.Review{},
		reporters: map[uuid.UUID]map[uuid.UUID]bool{},
		voters:    map[uuid.UUID]map[uuid.UUID]bool{},
	}
}

func (m *memReviews) CreateReview(_ context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.reviews {
		if e.UserID == r.UserID && e.AlcoholID == r.AlcoholID {
			return apperr.Conflict("you have already reviewed this alcohol")
		}
	}
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m *memReviews) FindReview(_ context.Context, id uuid.UUID) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reviews[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *memReviews) UpdateReview(_ context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[r.ID]; !ok {
		return errors.New("missing review")
	}
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m *memReviews) DeleteReview(_ context.Context, id uuid.UUID) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	delete(m.reviews, id)
	return r, nil
}

func (m *memReviews) ReportReview(_ context.Context, id, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reporters[id] == nil {
		m.reporters[id] = map[uuid.UUID]bool{}
	}
	if m.reporters[id][userID] {
		return false, nil
	}
	m.reporters[id][userID] = true
	m.reviews[id].ReportCount++
	return true, nil
}

func (m *memReviews) VoteHelpful(_ context.Context, id, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.voters[id] == nil {
		m.voters[id] = map[uuid.UUID]bool{}
	}
	if m.voters[id][userID] {
		return false, nil
	}
	m.voters[id][userID] = true
	m.reviews[id].HelpfulCount++
	return true, nil
}

func (m *memReviews) UnvoteHelpful(_ context.Context, id, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.voters[id][userID] {
		return false, nil
	}
	delete(m.voters[id], userID)
	m.reviews[id].HelpfulCount--
	return true, nil
}

func (m *memReviews) BanReview(_ context.Context, id, bannedBy uuid.UUID, reason string) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	m.banned = append(m.banned, &models.BannedReview{Review: *r, BannedBy: bannedBy, Reason: reason})
	delete(m.reviews, id)
	return r, nil
}

func (m *memReviews) ReviewIDsByUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for _, r := range m.reviews {
		if r.UserID == userID {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (m *memReviews) ReviewIDsByAlcohol(_ context.Context, alcoholID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for _, r := range m.reviews {
		if r.AlcoholID == alcoholID {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (m *memReviews) WithdrawUserVotes(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, set := range m.reporters {
		if set[userID] {
			delete(set, userID)
			if r, ok := m.reviews[id]; ok {
				r.ReportCount--
			}
		}
	}
	for id, set := range m.voters {
		if set[userID] {
			delete(set, userID)
			if r, ok := m.reviews[id]; ok {
				r.HelpfulCount--
			}
		}
	}
	return nil
}

type fakeModerator struct {
	flagged bool
	err     error
	calls   int
}

func (f *fakeModerator) Screen(context.Context, string) (bool, error) {
	f.calls++
	return f.flagged, f.err
}

type fakeDependents struct {
	purged     []uuid.UUID
	unfollowed []uuid.UUID
	cleared    []uuid.UUID
	deleted    []uuid.UUID
}

func (f *fakeDependents) PurgeAlcohol(_ context.Context, id uuid.UUID) error {
	f.purged = append(f.purged, id)
	return nil
}

func (f *fakeDependents) RemoveFollows(_ context.Context, id uuid.UUID) error {
	f.unfollowed = append(f.unfollowed, id)
	return nil
}

func (f *fakeDependents) ClearLists(_ context.Context, id uuid.UUID) error {
	f.cleared = append(f.cleared, id)
	return nil
}

func (f *fakeDependents) DeleteUser(_ context.Context, id uuid.UUID) (bool, error) {
	f.deleted = append(f.deleted, id)
	return true, nil
}

type fakeImages struct {
	renamed [][2]string
	deleted []string
}

func (f *fakeImages) RenameImages(_ context.Context, oldKey, newKey string) error {
	f.renamed = append(f.renamed, [2]string{oldKey, newKey})
	return nil
}

func (f *fakeImages) DeleteImages(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}
