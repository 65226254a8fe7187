package domain

import "errors"

var (
	// ErrEmptyBank is returned when a quiz is started with no questions.
	ErrEmptyBank = errors.New("question bank is empty")
	// ErrAlreadyActive is returned when a conversation already runs a quiz.
	ErrAlreadyActive = errors.New("quiz already running in this conversation")
	// ErrNoActiveSession is returned when there is no quiz to act on.
	ErrNoActiveSession = errors.New("no quiz running in this conversation")
	// ErrDuplicateAnswer is returned on a second answer to the same question.
	ErrDuplicateAnswer = errors.New("already answered this question")
	// ErrExpired is returned when an answer arrives after the deadline.
	ErrExpired = errors.New("time is up for this question")
	// ErrMalformedSelection is returned for an out of range or unparsable option.
	ErrMalformedSelection = errors.New("invalid option selected")
	// ErrNotPrivileged is returned when the actor may not run the operation.
	ErrNotPrivileged = errors.New("only admins can do that here")
	// ErrInvalidQuestion indicates a question record failed validation.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrQuestionNotFound indicates a bank index that does not exist.
	ErrQuestionNotFound = errors.New("question not found")
)
