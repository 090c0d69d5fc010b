package ai

// EntityTypes defines the valid categories for recognized entities.
// These types are used by entity recognizers to classify mentions of
// crypto-economy actors and instruments.
var EntityTypes = []string{
	"cryptocurrency",
	"token",
	"protocol",
	"exchange",
	"platform",
	"project",
	"organization",
	"person",
	"place",
	"event",
	"regulator",
}
