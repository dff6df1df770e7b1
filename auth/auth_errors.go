package auth

// Messages carried by the AuthErrors this package returns. The HTTP layer
// decides how much of them a caller sees.
const (
	NoUserFoundMsg          = "No user found"
	InvalidCredentialsMsg   = "invalid credentials"
	InvalidClientMsg        = "invalid client"
	UnauthorizedMsg         = "Unauthorized"
	TokenValidationErrorMsg = "Token Validation Error"
	TokenStoreErrorMsg      = "token store unavailable"
	DirectoryErrorMsg       = "directory unavailable"
)
