package campaign

import "errors"

var (
	ErrNotFound           = errors.New("campaign not found")
	ErrInvalidCampaign    = errors.New("invalid campaign")
	ErrDuplicateDonation  = errors.New("donation already recorded for transaction")
	ErrIncompleteMetadata = errors.New("incomplete checkout metadata")
)
