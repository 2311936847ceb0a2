package userservice

import (
	"regexp"

	"github.com/sushihentaime/inkpost/internal/common"
)

var (
	UsernameRX = regexp.MustCompile("^[a-zA-Z0-9_]+$")
)

func validateUsername(v *common.Validator, username string) {
	v.Check(username != "", "username", "must be provided")
	v.Check(v.CheckStringLength(username, 3, 50), "username", "must be between 3 and 50 characters long")
	v.Check(v.Matches(username, UsernameRX), "username", "must only contain letters, numbers and underscores")
}

func validateEmail(v *common.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(v.Matches(email, common.EmailRX), "email", "must be a valid email address")
}

// bcrypt ignores anything past 72 bytes.
func validatePassword(v *common.Validator, password string) {
	v.Check(password != "", "password", "must be provided")
	v.Check(len(password) >= 8 && len(password) <= 72, "password", "must be between 8 and 72 bytes long")
}

func validateRole(v *common.Validator, role Role) {
	v.Check(common.PermittedValue(role, RoleAdmin, RoleEditor), "role", "must be admin or editor")
}

func ValidateToken(v *common.Validator, token string) {
	v.Check(token != "", "token", "must be provided")
	v.Check(len(token) == 26, "token", "invalid token")
}
