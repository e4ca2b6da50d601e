package repository

import "errors"

var (
	errMissingOwner  = errors.New("owner id is required")
	errBothDateForms = errors.New("date and dateIn are mutually exclusive")
	errNoDate        = errors.New("date or dateIn is required")
	errTooManyDates  = errors.New("dateIn holds more than 7 dates")
)
