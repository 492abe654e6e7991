package app

// GameWords is the default pool of drawable words. Each room gets its own
// copy so per-room used-word tracking never bleeds across rooms.
var GameWords = []string{
	// Household
	"house", "chair", "table", "window", "door",
	"mirror", "lamp", "clock", "pillow", "ladder",

	// Animals
	"dog", "cat", "elephant", "lion", "mouse",
	"butterfly", "bird", "fish", "spider", "octopus",

	// Nature
	"tree", "sun", "moon", "star", "mountain",
	"sea", "flower", "volcano", "rainbow", "cloud",

	// Objects
	"car", "phone", "computer", "television", "book",
	"guitar", "umbrella", "scissors", "anchor", "balloon",

	// Food
	"cheese", "pizza", "hamburger", "ice cream", "coffee",
	"banana", "cake", "taco", "pretzel", "watermelon",

	// Concepts
	"fire", "water", "heart", "smile", "tear",
	"gift", "party", "music", "dance", "sport",
}
