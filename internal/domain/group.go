package domain

type GroupState string

const (
	GroupUnchecked     GroupState = "unchecked"
	GroupIndeterminate GroupState = "indeterminate"
	GroupChecked       GroupState = "checked"
)

func GroupStateFor(selected, total int) GroupState {
	switch {
	case total > 0 && selected == total:
		return GroupChecked
	case selected > 0 && selected < total:
		return GroupIndeterminate
	default:
		return GroupUnchecked
	}
}

type ModuleGroup struct {
	Module      string   `json:"module"`
	Permissions []string `json:"permissions"`
}

type ModuleSelection struct {
	Module       string     `json:"module"`
	Permissions  []string   `json:"permissions"`
	Selected     []string   `json:"selected"`
	Total        int        `json:"total"`
	State        GroupState `json:"state"`
	// NonCanonical lists tokens of the module that do not affect module visibility.
	NonCanonical []string   `json:"non_canonical,omitempty"`
}
