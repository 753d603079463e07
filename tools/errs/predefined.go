package errs

// Error codes per failure class. Authorization first, then not-found,
// then state conflicts, then infrastructure.
const (
	ServerInternalError = 500

	CodeNotAuthorized = 1101
	CodeAccessDenied  = 1102

	CodeInvalidTargetUser   = 1201
	CodeInvalidConversation = 1202
	CodeMessageNotFound     = 1203
	CodeNoEntity            = 1204

	CodeSameParties  = 1301
	CodeInvalidState = 1302

	CodeDbError = 1501
)

var (
	ErrNotAuthorized = NewCodeError(CodeNotAuthorized, "caller is not authenticated")
	ErrAccessDenied  = NewCodeError(CodeAccessDenied, "access denied")

	ErrInvalidTargetUser   = NewCodeError(CodeInvalidTargetUser, "target user does not exist")
	ErrInvalidConversation = NewCodeError(CodeInvalidConversation, "conversation does not exist")
	ErrMessageNotFound     = NewCodeError(CodeMessageNotFound, "message not found")
	ErrNoEntity            = NewCodeError(CodeNoEntity, "entity not found")

	ErrSameParties  = NewCodeError(CodeSameParties, "conversation parties must differ")
	ErrInvalidState = NewCodeError(CodeInvalidState, "operation invalid in current state")

	ErrDb       = NewCodeError(CodeDbError, "storage failure")
	ErrInternal = NewCodeError(ServerInternalError, "internal error")
)
