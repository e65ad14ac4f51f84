package domain

import "errors"

var (
	// ErrPlayerNotFound is returned when a player ID does not resolve.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrQuestionNotFound is returned when a question ID does not resolve.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNameRequired is returned when registering without a display name.
	ErrNameRequired = errors.New("name is required")
	// ErrNameTaken is returned when a registration name is already in use.
	ErrNameTaken = errors.New("name already taken")
	// ErrRoundNotActive is returned for player actions outside an active round.
	ErrRoundNotActive = errors.New("no active round")
	// ErrNotEligible is returned when a player missed the previous round's shortlist.
	ErrNotEligible = errors.New("not eligible for this round")
	// ErrInsufficientPoints is returned when a wager exceeds the player's balance.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrDuplicateBet is returned when a bet already exists for (round, player).
	ErrDuplicateBet = errors.New("bet already placed")
	// ErrDuplicateAnswer is returned when an answer already exists for (player, question).
	ErrDuplicateAnswer = errors.New("answer already submitted")
	// ErrCodeRequired is returned when betting on the code round without a code on file.
	ErrCodeRequired = errors.New("code required before betting")
	// ErrInvalidCode is returned for codes that are not exactly five decimal digits.
	ErrInvalidCode = errors.New("code must be 5 digits")
	// ErrNoMapping is returned when no digit of a code maps to a question.
	ErrNoMapping = errors.New("code did not map to any question")
	// ErrNoBet is returned when answering without a bet for the active round.
	ErrNoBet = errors.New("no bet found for this round")
	// ErrNoCodeSequence is returned when fetching code-round questions without a code.
	ErrNoCodeSequence = errors.New("no code set for this player")
	// ErrNoRoundSequence is returned when advancing a sequence that was never created.
	ErrNoRoundSequence = errors.New("no round sequence for player")
	// ErrNoQuestions is returned when a round has no authored questions.
	ErrNoQuestions = errors.New("no questions for round")
	// ErrImageNotFound is returned when an uploaded asset ID does not resolve.
	ErrImageNotFound = errors.New("image not found")
)
