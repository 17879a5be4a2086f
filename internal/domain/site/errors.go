package site

import "errors"

var (
	ErrSiteNotFound  = errors.New("site not found")
	ErrShiftNotFound = errors.New("shift not found for this site")
)
