package services

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// IOError reports a failed store call with the per-operation message shown to users.
type IOError struct {
	Message string
	Err     error
}

func (e *IOError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// Per-operation I/O failure messages.
const (
	MsgUsersLoadFailed       = "Users load failed"
	MsgStatusFetchFailed     = "Status fetch failed"
	MsgLogsLoadFailed        = "Logs load failed"
	MsgUpdateFailed          = "Update failed"
	MsgAccountCreationFailed = "Account creation failed"
	MsgSessionFailed         = "Session storage failed"
)
