package events

import "github.com/concoro/notifier/internal/entities"

var ItemSavedTopic = "ItemSavedEvent"

// ItemSaved fires when the web app records a new bookmark. The notifier
// reacts by running the deadline check for that single item.
type ItemSaved struct {
	Item entities.SavedItem
}
