package domain

import "errors"

var (
	// ErrValidation is returned for malformed or missing input.
	ErrValidation = errors.New("validation error")
	// ErrDuplicateUser is returned when registering an email that already exists.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned for absent, malformed or forged tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenExpired is returned when a token is past its validity window.
	ErrTokenExpired = errors.New("token expired")
	// ErrUserNotFound is returned when a token's identity no longer resolves.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotFound is returned for missing attempts, including ones owned by someone else.
	ErrNotFound = errors.New("not found")

	// ErrGenerationFormat indicates the model output could not be parsed as JSON.
	ErrGenerationFormat = errors.New("quiz generation returned malformed output")
	// ErrGenerationContract indicates parsed output did not match the requested shape.
	ErrGenerationContract = errors.New("quiz generation returned invalid or incomplete quiz data")
	// ErrModelUnavailable is returned when no generative model credentials are configured.
	ErrModelUnavailable = errors.New("missing GOOGLE_API_KEY")
	// ErrEmptyQuiz is returned when a session receives no questions.
	ErrEmptyQuiz = errors.New("quiz has no questions")

	// ErrDelivery indicates the mail transport rejected a report.
	ErrDelivery = errors.New("report delivery failed")

	// ErrSessionState is returned when an operation is not allowed in the current session state.
	ErrSessionState = errors.New("operation not allowed in current session state")
	// ErrAlreadySubmitted is returned when an attempt session was already submitted.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	// ErrInvalidAnswer indicates an out-of-range index or an option the question does not offer.
	ErrInvalidAnswer = errors.New("invalid answer")
)
