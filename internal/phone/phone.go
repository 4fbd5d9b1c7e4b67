package phone

import (
	"fmt"

	"github.com/nyaruka/phonenumbers"
)

// Number is a phone number split the way the verification provider expects it.
type Number struct {
	CountryCode    int
	NationalNumber string
	E164           string
}

// Parse splits an E.164 formatted phone number into its country code and
// national significant number.
func Parse(full string) (Number, error) {
	pn, err := phonenumbers.Parse(full, "")
	if err != nil {
		return Number{}, fmt.Errorf("parse phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(pn) {
		return Number{}, fmt.Errorf("invalid phone number")
	}
	return Number{
		CountryCode:    int(pn.GetCountryCode()),
		NationalNumber: phonenumbers.GetNationalSignificantNumber(pn),
		E164:           phonenumbers.Format(pn, phonenumbers.E164),
	}, nil
}
