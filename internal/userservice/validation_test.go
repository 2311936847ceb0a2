package userservice

import (
	"strings"
	"testing"

	"github.com/sushihentaime/inkpost/internal/common"
)

func TestValidateUsername(t *testing.T) {
	testCases := []struct {
		username string
		valid    bool
	}{
		{username: "", valid: false},
		{username: "a", valid: false},
		{username: "ab", valid: false},
		{username: "abc", valid: true},
		{username: "valid123", valid: true},
		{username: "valid_username", valid: true},
		{username: "invalid!", valid: false},
		{username: "invalid username", valid: false},
		{username: "invalid-username", valid: false},
		{username: strings.Repeat("a", 50), valid: true},
		{username: strings.Repeat("a", 51), valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.username, func(t *testing.T) {
			v := common.NewValidator()
			validateUsername(v, tc.username)
			if v.Valid() != tc.valid {
				t.Errorf("expected %v, got %v", tc.valid, v.Valid())
				for _, e := range v.Errors {
					t.Log(e)
				}
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	testCases := []struct {
		email string
		valid bool
	}{
		{email: "", valid: false},
		{email: "a", valid: false},
		{email: "a@", valid: false},
		{email: "a@b", valid: false},
		{email: "a@b.c", valid: false},
		{email: "a@b.com", valid: true},
		{email: "alice.smith+blog@example.co.uk", valid: true},
	}

	for _, tc := range testCases {
		t.Run(tc.email, func(t *testing.T) {
			v := common.NewValidator()
			validateEmail(v, tc.email)
			if v.Valid() != tc.valid {
				t.Errorf("expected %v, got %v", tc.valid, v.Valid())
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	testCases := []struct {
		password string
		valid    bool
	}{
		{password: "", valid: false},
		{password: "abc", valid: false},
		{password: "abcdefg", valid: false},
		{password: "abcdefgh", valid: true},
		{password: "password123", valid: true},
		{password: strings.Repeat("p", 72), valid: true},
		{password: strings.Repeat("p", 73), valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.password, func(t *testing.T) {
			v := common.NewValidator()
			validatePassword(v, tc.password)
			if v.Valid() != tc.valid {
				t.Errorf("expected %v, got %v", tc.valid, v.Valid())
			}
		})
	}
}

func TestValidateRole(t *testing.T) {
	testCases := []struct {
		role  Role
		valid bool
	}{
		{role: RoleAdmin, valid: true},
		{role: RoleEditor, valid: true},
		{role: "", valid: false},
		{role: "viewer", valid: false},
		{role: "ADMIN", valid: false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.role), func(t *testing.T) {
			v := common.NewValidator()
			validateRole(v, tc.role)
			if v.Valid() != tc.valid {
				t.Errorf("expected %v, got %v", tc.valid, v.Valid())
			}
		})
	}
}
