package user

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/gradeportal/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	// password policy
	pwdMinLen     = 8
	pwdMinLenText = fmt.Sprintf("password should contain at least %d characters", pwdMinLen)

	pwdNoSpaceText = "password should not contain whitespace"

	pwdNotAllNumText = "password should not be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimText = "password should not be similar to your username, name or email"

	pwdMismatchText = "passwords do not match"
)

// InitValidators registers the user validators & translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	core.RegisterCustomTranslation(validate, translator, "eqfield", pwdMismatchText, true)
}

// Custom Validators

// roleValidation checks that the role is one of AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case Role:
		return v.Valid()
	case string:
		return Role(v).Valid()
	}
	return false
}

// PasswordAdvice checks the password of the registration against the password policy.
// The backend decides what it accepts, so the result never blocks a registration:
// - minLen: 8
// - no whitespace
// - no all numeric
// - no user attrs similarity
func (r Registration) PasswordAdvice() string {
	pwd := r.Password
	if pwd == "" {
		return ""
	}

	runes := []rune(pwd)
	if len(runes) < pwdMinLen {
		return pwdMinLenText
	}

	var digitCount int
	for _, char := range runes {
		if unicode.IsSpace(char) {
			return pwdNoSpaceText
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == len(runes) {
		return pwdNotAllNumText
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		pass, usrAttr = strings.ToLower(pass), strings.ToLower(usrAttr)
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	if getRatio(pwd, r.RealName) >= pwdMaxSim ||
		getRatio(pwd, r.Username) >= pwdMaxSim ||
		getRatio(pwd, r.Email) >= pwdMaxSim {
		return pwdAttrSimText
	}
	return ""
}
