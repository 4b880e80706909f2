package entity

import "errors"

// Domain errors shared by the store, the controller and the adapters.
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrEmptyUsername         = errors.New("please enter a valid username")
	ErrNotLoggedIn           = errors.New("please login first")
	ErrEmptyTranslation      = errors.New("please enter a translation before submitting")
	ErrInvalidSex            = errors.New("sex must be Male, Female or Other")
	ErrInvalidAge            = errors.New("age must be between 10 and 120")
	ErrInvalidAdminPassword  = errors.New("incorrect password")
	ErrAdminRequired         = errors.New("admin login required")
	ErrUnknownPage           = errors.New("unknown page")
	ErrMissingSentenceColumn = errors.New("sentence dataset is missing the required column")
	ErrAssignmentComplete    = errors.New("all assigned translations are complete")
	ErrStaleSubmission       = errors.New("submission does not match the current sentence")
	ErrSentenceUnavailable   = errors.New("assigned sentence is no longer in the dataset")
	ErrSentenceAvailable     = errors.New("current sentence is available and cannot be skipped")
	ErrConcurrentUpdate      = errors.New("record was modified concurrently")
	ErrNoChange              = errors.New("no change")
)
