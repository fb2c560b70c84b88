package repo

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrDuplicatedValueUnique = errors.New("unique constraint violation")
	ErrSampleNotFound        = errors.New("no weight sample for device")
	ErrStatsNotFound         = errors.New("no statistics for device")
)
