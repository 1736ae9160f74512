package rest

import (
	"errors"
	"strconv"

	"github.com/coachpo/coinbase-advanced/errs"
)

var errMissingEnvelope = errors.New("response envelope key missing")

func boundExceeded(op string, maxPages int) error {
	return errs.New(op, errs.CodeExchange,
		errs.WithMessage("pagination bound exceeded"),
		errs.WithMetadataField("max_pages", strconv.Itoa(maxPages)))
}
