package perfil

import (
	"bufio"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/klauspost/compress/gzip"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	appfs "github.com/ViictorDantas/Prova-Tecnica-Unifip/fs"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("a senha deve conter pelo menos %d caracteres", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "a senha não pode conter espaços"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "a senha não pode ser inteiramente numérica"

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "a senha deve conter pelo menos 1 letra maiúscula, 1 letra minúscula, 1 dígito e 1 caractere especial"
	specialRegex      = regexp.MustCompile("[^A-Za-z0-9]")

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "a senha é muito parecida com os dados do perfil"

	pwdNoCommonTag  = "pwdnocommon"
	pwdNoCommonText = "esta senha é muito comum"

	commonPasswordsPath = "assets/common-passwords.txt.gz"
	commonPasswords     []string
	commonPwdsOnce      sync.Once
)

// InitValidators registers the Perfil struct validations and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(perfilStructValidation, NewPerfil{}, UpdatePerfil{}, ResetPassword{})
	core.MustRegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.MustRegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.MustRegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.MustRegisterCustomTranslation(validate, translator, pwdComplexityTag, pwdComplexityText)
	core.MustRegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
	core.MustRegisterCustomTranslation(validate, translator, pwdNoCommonTag, pwdNoCommonText)
}

// LoadCommonPasswords reads the embedded list of common passwords. Safe to call more than once.
func LoadCommonPasswords(logger core.Logger) {
	commonPwdsOnce.Do(func() {
		file, err := appfs.FS.Open(commonPasswordsPath)
		if err != nil {
			logger.Error("perfil.LoadCommonPasswords: opening asset", err)
			return
		}
		//goland:noinspection GoUnhandledErrorResult
		defer file.Close()

		gzRdr, err := gzip.NewReader(file)
		if err != nil {
			logger.Error("perfil.LoadCommonPasswords: reading gzip", err)
			return
		}
		pwds := make([]string, 0, 256)
		scanner := bufio.NewScanner(gzRdr)
		for scanner.Scan() {
			if pwd := strings.TrimSpace(scanner.Text()); pwd != "" {
				pwds = append(pwds, strings.ToLower(pwd))
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Error("perfil.LoadCommonPasswords: scanning", err)
		}
		sort.Strings(pwds)
		commonPasswords = pwds
	})
}

// perfilStructValidation applies the password policy to NewPerfil, UpdatePerfil and ResetPassword.
func perfilStructValidation(sl validator.StructLevel) {
	switch p := sl.Current().Interface().(type) {
	case NewPerfil:
		if p.Password != "" {
			validatePassword(p.Password, sl, p.Nome, p.Email)
		}
	case UpdatePerfil:
		if p.Password != "" {
			validatePassword(p.Password, sl, p.Nome, p.Email)
		}
	case ResetPassword:
		validatePassword(p.Password, sl)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - complexity: 1 upper, 1 lower, 1 digit, 1 special
// - no similarity with the profile attributes
// - no common password
func validatePassword(pwd string, sl validator.StructLevel, attrs ...string) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	var (
		digitCount         int
		hasUpper, hasLower bool
	)

	runes := []rune(pwd)
	pwdLen := len(runes)
	if pwdLen < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	for _, char := range runes {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		if !hasUpper && unicode.IsUpper(char) {
			hasUpper = true
		}
		if !hasLower && unicode.IsLower(char) {
			hasLower = true
		}
	}

	if digitCount == pwdLen {
		reportErr(pwdNotAllNumTag)
		return
	}

	if !(hasUpper && hasLower && digitCount > 0 && specialRegex.MatchString(pwd)) {
		reportErr(pwdComplexityTag)
		return
	}

	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if passwordSimilarity(lpwd, strings.ToLower(attr)) >= pwdMaxSim {
			reportErr(pwdAttrSimTag)
			return
		}
		// the local part of an email is checked on its own as well
		if at := strings.IndexByte(attr, '@'); at > 0 {
			if passwordSimilarity(lpwd, strings.ToLower(attr[:at])) >= pwdMaxSim {
				reportErr(pwdAttrSimTag)
				return
			}
		}
	}

	if isCommonPassword(lpwd) {
		reportErr(pwdNoCommonTag)
	}
}

func passwordSimilarity(pwd, attr string) float64 {
	if attr == "" {
		return 0
	}
	return difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(attr, "")).QuickRatio()
}

func isCommonPassword(lpwd string) bool {
	idx := sort.SearchStrings(commonPasswords, lpwd)
	return idx < len(commonPasswords) && commonPasswords[idx] == lpwd
}
