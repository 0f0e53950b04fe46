package errors

var (
	// Domain errors used in service/repository
	ErrUsernameTaken      = AlreadyExists("username already taken")
	ErrUserNotFound       = NotFound("user not found")
	ErrMessageNotFound    = NotFound("message not found")
	ErrInvalidCredentials = Unauthorized("invalid username/password")
	ErrInvalidToken       = Unauthorized("invalid or expired token")
	ErrNotParticipant     = Forbidden("only the sender or recipient can view this message")
	ErrNotRecipient       = Forbidden("only the recipient can mark this message read")
	ErrSenderMismatch     = Forbidden("from_username must match the authenticated user")
	ErrNotSelf            = Forbidden("cannot access another user's data")
)

func ErrStoreUnavailable(cause error) error {
	return Wrap(CodeUnavailable, "storage unavailable", cause)
}
