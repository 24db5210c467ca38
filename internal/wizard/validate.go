// Package wizard validates per-step input for the multi-step dialogs.
// Validators are pure: they take the raw text and return either the parsed
// value or a validation error whose message is shown as the re-prompt.
package wizard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/velta-dev/afisha-bot/internal/errors"
)

// SkipToken is the sentinel users send to leave an optional field unset.
const SkipToken = "-"

// DateTimeLayout is the textual format events are entered in.
const DateTimeLayout = "02.01.2006 15:04"

const (
	// MinLead is the minimum distance between "now" and an event start.
	MinLead = time.Hour
	// MaxLead bounds how far in the future an event may be scheduled.
	MaxLead = 365 * 24 * time.Hour
)

// Limits carries configurable bounds for wizard input.
type Limits struct {
	MaxTitleLen     int
	MaxParticipants int
	MaxVideoBytes   int64
	Cities          []string
}

// Title validates and normalizes the event title.
func Title(raw string, limits Limits) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", apperrors.NewValidationError("The title cannot be empty. Please enter a title:")
	}

	maxLen := limits.MaxTitleLen
	if maxLen <= 0 {
		maxLen = 255
	}
	if len(title) > maxLen {
		return "", apperrors.NewValidationError(fmt.Sprintf("The title is too long (max %d characters). Please enter a shorter title:", maxLen))
	}

	return title, nil
}

// OptionalText handles description and location: the skip token maps to an
// empty value, anything else is stored verbatim.
func OptionalText(raw string) string {
	if strings.TrimSpace(raw) == SkipToken {
		return ""
	}
	return raw
}

// City resolves a one-based menu choice or a literal city name against the
// configured city list.
func City(raw string, limits Limits) (string, error) {
	input := strings.TrimSpace(raw)

	if idx, err := strconv.Atoi(input); err == nil {
		if idx >= 1 && idx <= len(limits.Cities) {
			return limits.Cities[idx-1], nil
		}
	} else {
		for _, city := range limits.Cities {
			if strings.EqualFold(city, input) {
				return city, nil
			}
		}
	}

	return "", apperrors.NewValidationError(cityPrompt(limits.Cities))
}

func cityPrompt(cities []string) string {
	var b strings.Builder
	b.WriteString("Please pick one of the supported cities:")
	for i, city := range cities {
		fmt.Fprintf(&b, "\n%d - %s", i+1, city)
	}
	return b.String()
}

// DateTime parses the event date against the fixed layout and checks the
// scheduling bounds relative to now. The violated bound is named in the error.
func DateTime(raw string, now time.Time) (time.Time, error) {
	parsed, err := time.ParseInLocation(DateTimeLayout, strings.TrimSpace(raw), now.Location())
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(
			"Invalid date format. Use DD.MM.YYYY HH:MM, for example: 25.12.2024 18:30")
	}

	if parsed.Before(now.Add(MinLead)) {
		return time.Time{}, apperrors.NewValidationError(
			"The event must start at least 1 hour from now. Please enter a later date:")
	}

	if parsed.After(now.Add(MaxLead)) {
		return time.Time{}, apperrors.NewValidationError(
			"The event cannot be more than 365 days away. Please enter an earlier date:")
	}

	return parsed, nil
}

// MaxParticipants parses the participant cap. The skip token means unlimited
// and is returned as zero.
func MaxParticipants(raw string, limits Limits) (int, error) {
	input := strings.TrimSpace(raw)
	if input == SkipToken {
		return 0, nil
	}

	limit := limits.MaxParticipants
	if limit <= 0 {
		limit = 10000
	}

	n, err := strconv.Atoi(input)
	if err != nil || n <= 0 {
		return 0, apperrors.NewValidationError("Enter a positive number, or '-' for unlimited participants:")
	}

	if n > limit {
		return 0, apperrors.NewValidationError(fmt.Sprintf("The participant cap cannot exceed %d. Enter a smaller number:", limit))
	}

	return n, nil
}

// RegistrationRequired resolves the fixed two-option choice.
func RegistrationRequired(raw string) (bool, error) {
	switch strings.TrimSpace(raw) {
	case "1":
		return true, nil
	case "2":
		return false, nil
	default:
		return false, apperrors.NewValidationError("Please pick 1 (registration required) or 2 (no registration):")
	}
}

// Media describes attached wizard media after validation.
type Media struct {
	PhotoFileID string
	VideoFileID string
}

// MediaInput is the transport-agnostic view of what the user sent at the
// media step.
type MediaInput struct {
	Text        string
	PhotoFileID string
	VideoFileID string
	VideoBytes  int64
}

// ValidateMedia accepts the skip token, one photo, or one size-bounded video.
func ValidateMedia(in MediaInput, limits Limits) (Media, error) {
	switch {
	case strings.TrimSpace(in.Text) == SkipToken:
		return Media{}, nil
	case in.PhotoFileID != "":
		return Media{PhotoFileID: in.PhotoFileID}, nil
	case in.VideoFileID != "":
		maxBytes := limits.MaxVideoBytes
		if maxBytes <= 0 {
			maxBytes = 50 * 1024 * 1024
		}
		if in.VideoBytes > maxBytes {
			return Media{}, apperrors.NewValidationError(
				fmt.Sprintf("The video is too large (max %d MB). Send a smaller video, or '-' to skip:", maxBytes/(1024*1024)))
		}
		return Media{VideoFileID: in.VideoFileID}, nil
	default:
		return Media{}, apperrors.NewValidationError("Please send a photo, a video, or '-' to skip:")
	}
}
