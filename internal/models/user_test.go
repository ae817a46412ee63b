package models

import (
	"testing"

	"github.com/google/uuid"
)

// TestUserIsAdmin verifies that IsAdmin returns true only for the admin role.
func TestUserIsAdmin(t *testing.T) {
	tests := []struct {
		name string
		role Role
		want bool
	}{
		{name: "admin role", role: RoleAdmin, want: true},
		{name: "user role", role: RoleUser, want: false},
		{name: "empty role", role: Role(""), want: false},
		{name: "unknown role", role: Role("superadmin"), want: false},
		{name: "uppercase ADMIN", role: Role("ADMIN"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Role: tt.role}
			got := u.IsAdmin()
			if got != tt.want {
				t.Errorf("User{Role: %q}.IsAdmin() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestUserPublicHidesPrivateFields(t *testing.T) {
	u := &User{
		ID:             uuid.New(),
		Email:          "secret@example.com",
		PasswordHash:   "hash",
		DisplayName:    "Taster",
		RateCount:      3,
		AvgRating:      4,
		FollowersCount: 7,
	}
	p := u.Public()
	if p.ID != u.ID || p.DisplayName != "Taster" || p.FollowersCount != 7 || p.RateCount != 3 {
		t.Errorf("unexpected public view: %+v", p)
	}
}
