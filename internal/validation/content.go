package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxCategoryNameLength = 100
	MaxTopicTitleLength   = 200
	MaxContentLength      = 20000
)

func validateText(field, value string, maxLen int) error {
	if !utf8.ValidString(value) {
		return fmt.Errorf("%s must be valid UTF-8 text", field)
	}
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(value) > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", field, maxLen)
	}
	return nil
}

// ValidateCategoryName checks a category name.
func ValidateCategoryName(name string) error {
	return validateText("name", name, MaxCategoryNameLength)
}

// ValidateTopicTitle checks a topic title.
func ValidateTopicTitle(title string) error {
	return validateText("title", title, MaxTopicTitleLength)
}

// ValidateContent checks a topic or post body.
func ValidateContent(content string) error {
	return validateText("content", content, MaxContentLength)
}

// ValidateDescription allows empty descriptions but bounds their size.
func ValidateDescription(description string) error {
	if !utf8.ValidString(description) {
		return fmt.Errorf("description must be valid UTF-8 text")
	}
	if utf8.RuneCountInString(description) > MaxContentLength {
		return fmt.Errorf("description must not exceed %d characters", MaxContentLength)
	}
	return nil
}
