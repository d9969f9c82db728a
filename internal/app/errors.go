package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUserNotFound      = errors.New("user not found")
	ErrPostNotFound      = errors.New("post not found")
	ErrInvalidCredential = errors.New("invalid email or password")
)

// Confirmation messages returned with every successful mutation.
const (
	MsgUserCreated = "User created successfully!"
	MsgUserUpdated = "User updated successfully!"
	MsgUserDeleted = "User deleted successfully!"
	MsgPostCreated = "Post created successfully!"
	MsgPostUpdated = "Post updated successfully!"
	MsgPostDeleted = "Post deleted successfully!"
)
