package fertilizer

import "errors"

// ErrInvalidVariety rejects a whole request: the variety is empty or unknown.
var ErrInvalidVariety = errors.New("invalid variety selection")
