package config

const (
	// Database errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"
	ErrGetPostsFmt           = "Failed to get posts: %v"

	// Auth errors
	ErrInvalidCredentials  = "Invalid username or password"
	ErrSessionRequired     = "Valid admin session required"
	ErrInternalServerError = "Internal server error"

	// Request errors
	ErrMissingImage     = "No image was uploaded"
	ErrMalformedJSON    = "Malformed JSON body"
	ErrTitleRequired    = "Title is required"
	ErrContentRequired  = "Content is required"
	ErrContentTooLong   = "Content exceeds %d characters"
	ErrUnknownEncoding  = "Unknown encoding %q"
	ErrPostNotFound     = "Post not found"
	ErrExpectedJSONBody = "expected a JSON response"

	// Config errors
	ErrWriteConfigContentFmt = "Failed to write config content: %v"
)
