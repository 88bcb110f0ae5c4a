package enums

import "fmt"

// NotificationCategory maps to the notification_category enum in Postgres.
type NotificationCategory string

const (
	NotificationCategoryInfo        NotificationCategory = "INFO"
	NotificationCategoryWarning     NotificationCategory = "WARNING"
	NotificationCategoryError       NotificationCategory = "ERROR"
	NotificationCategorySuccess     NotificationCategory = "SUCCESS"
	NotificationCategoryBusAlert    NotificationCategory = "BUS_ALERT"
	NotificationCategoryEventUpdate NotificationCategory = "EVENT_UPDATE"
	NotificationCategoryNewMessage  NotificationCategory = "NEW_MESSAGE"
)

var validNotificationCategories = []NotificationCategory{
	NotificationCategoryInfo,
	NotificationCategoryWarning,
	NotificationCategoryError,
	NotificationCategorySuccess,
	NotificationCategoryBusAlert,
	NotificationCategoryEventUpdate,
	NotificationCategoryNewMessage,
}

// IsValid checks whether the given category matches the canonical enum.
func (n NotificationCategory) IsValid() bool {
	for _, candidate := range validNotificationCategories {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationCategory converts raw strings into NotificationCategory.
func ParseNotificationCategory(value string) (NotificationCategory, error) {
	for _, candidate := range validNotificationCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification category %q", value)
}
