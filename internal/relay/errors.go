package relay

import "errors"

var errMissingClientID = errors.New("missing client_id")
