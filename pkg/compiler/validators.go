package compiler

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jbub/banking/iban"

	"github.com/goliatone/go-formcode/pkg/ast"
)

// namedValidator checks a value and returns its normalized form.
type namedValidator func(string) (string, error)

var namedValidators = map[string]namedValidator{
	ast.ValidatorIBAN:  validateIBAN,
	ast.ValidatorCHSSN: validateSwissSSN,
	ast.ValidatorCHUID: validateSwissUID,
	ast.ValidatorCHVAT: validateSwissVAT,
}

var (
	ssnPattern  = regexp.MustCompile(`^756\.[0-9]{4}\.[0-9]{4}\.[0-9]{2}$`)
	uidPattern  = regexp.MustCompile(`^CHE-?([0-9]{3})\.?([0-9]{3})\.?([0-9]{3})$`)
	vatPattern  = regexp.MustCompile(`^(.+?)\s+(MWST|TVA|IVA)$`)
	errIBAN     = errors.New("not a valid IBAN")
	errSwissSSN = errors.New("not a valid AHV number")
	errSwissUID = errors.New("not a valid UID")
	errSwissVAT = errors.New("not a valid VAT number")
)

func validateIBAN(value string) (string, error) {
	compact := strings.ToUpper(strings.Join(strings.Fields(value), ""))
	if err := iban.Validate(compact); err != nil {
		return "", errIBAN
	}
	return compact, nil
}

func validateSwissSSN(value string) (string, error) {
	if !ssnPattern.MatchString(value) {
		return "", errSwissSSN
	}
	digits := strings.ReplaceAll(value, ".", "")
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(digits[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	if (10-sum%10)%10 != int(digits[12]-'0') {
		return "", errSwissSSN
	}
	return value, nil
}

func validateSwissUID(value string) (string, error) {
	m := uidPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(value)))
	if m == nil {
		return "", errSwissUID
	}
	digits := m[1] + m[2] + m[3]
	weights := []int{5, 4, 3, 2, 7, 6, 5, 4}
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	check := 11 - sum%11
	if check == 11 {
		check = 0
	}
	if check == 10 || check != int(digits[8]-'0') {
		return "", errSwissUID
	}
	return "CHE-" + m[1] + "." + m[2] + "." + m[3], nil
}

func validateSwissVAT(value string) (string, error) {
	m := vatPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return "", errSwissVAT
	}
	uid, err := validateSwissUID(m[1])
	if err != nil {
		return "", errSwissVAT
	}
	return uid + " " + m[2], nil
}
