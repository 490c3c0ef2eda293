package domain

type Category string

const (
	CategoryEasynode   Category = "easynode"
	CategoryImmobilier Category = "immobilier"
	CategoryContent    Category = "content"
	CategoryPersonnel  Category = "personnel"
	CategoryAdmin      Category = "admin"
	CategoryGeneral    Category = "general"
)

// ValidCategories is the canonical set of accepted category strings.
var ValidCategories = map[string]bool{
	"easynode": true, "immobilier": true, "content": true,
	"personnel": true, "admin": true, "general": true,
}

// CategoryOrDefault returns the category if valid, CategoryGeneral otherwise.
func CategoryOrDefault(s string) Category {
	if ValidCategories[s] {
		return Category(s)
	}
	return CategoryGeneral
}

type Priority string

const (
	PriorityUrgent    Priority = "urgent"
	PriorityImportant Priority = "important"
	PriorityNormal    Priority = "normal"
)

// PriorityRank maps priorities to a sort rank. Lower sorts first.
var PriorityRank = map[Priority]int{
	PriorityUrgent:    0,
	PriorityImportant: 1,
	PriorityNormal:    2,
}

// PriorityOrDefault returns the priority if valid, PriorityNormal otherwise.
func PriorityOrDefault(s string) Priority {
	switch Priority(s) {
	case PriorityUrgent, PriorityImportant, PriorityNormal:
		return Priority(s)
	default:
		return PriorityNormal
	}
}

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)
