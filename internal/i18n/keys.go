// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired        = "auth.required"
	KeyAuthInvalidToken    = "auth.invalid_token"
	KeyAuthTokenExpired    = "auth.token_expired"
	KeyAuthLoginSuccess    = "auth.login_success"
	KeyAuthLogoutSuccess   = "auth.logout_success"
	KeyAuthRegisterSuccess = "auth.register_success"

	// Users
	KeyUserNotFound = "user.not_found"

	// Friends
	KeyFriendRequestCreated  = "friend.request_created"
	KeyFriendRequestUpdated  = "friend.request_updated"
	KeyFriendAlreadyFriends  = "friend.already_friends"
	KeyFriendRequestNotFound = "friend.request.not_found"

	// Transactions
	KeyTransactionCreated  = "transaction.created"
	KeyTransactionNotFound = "transaction.not_found"

	// Authorization
	KeyPermissionDenied = "permission.denied"

	// Validation
	KeyValidationInvalid = "validation.invalid"
)
