package errors

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidInput       = errors.New("invalid input data")
	ErrValidationFailed   = errors.New("validation failed")
	ErrUnauthorized       = errors.New("access denied, please log in")
	ErrInvalidToken       = errors.New("invalid token, please log in again")
	ErrInternalServer     = errors.New("internal server error")
	ErrBadRequest         = errors.New("bad request")
	ErrNotFound           = errors.New("task not found")
	ErrConflict           = errors.New("resource conflict")

	ErrInvalidEmail       = errors.New("a valid email is required")
	ErrInvalidPassword    = errors.New("password must be at least 6 characters")
	ErrInvalidStatus      = errors.New("invalid task status")
	ErrInvalidPriority    = errors.New("invalid task priority")
	ErrInvalidTitle       = errors.New("title is required")
	ErrInvalidDescription = errors.New("invalid task description")
	ErrInvalidDueDate     = errors.New("invalid due date")

	ErrConfigFileReadFailed = errors.New("failed to read config file")
	ErrConfigParseFailed    = errors.New("failed to parse config file")
	ErrConfigInvalidFormat  = errors.New("invalid config value format")
	ErrMissingJWTSecret     = errors.New("JWT secret is not configured")

	ErrInvalidGzipRequest    = errors.New("invalid gzip request body")
	ErrGzipCompressionFailed = errors.New("gzip compression failed")

	ErrIntentParse        = errors.New("language model reply is not a valid intent")
	ErrIntentMissingTitle = errors.New("I couldn't understand the task title.")
	ErrIntentMissingQuery = errors.New("I couldn't tell which task you meant.")
	ErrUnknownState       = errors.New("unknown conversation state")
	ErrMissingTaskID      = errors.New("a task id is required to add a description")
	ErrTranscodeFailed    = errors.New("audio transcoding failed")
	ErrUnsupportedAudio   = errors.New("unsupported audio format")
	ErrEmptyTranscript    = errors.New("empty transcript")
	ErrEmptySpeechText    = errors.New("text is required")
	ErrUploadTooLarge     = errors.New("audio file is too large")
)

// Is, As and New forward to the standard library errors package.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func New(text string) error { return errors.New(text) }
