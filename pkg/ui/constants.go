package ui

// Key hints
const (
	HintSelect    = "↑/↓: Navigate | type to filter | enter: Select | esc: Cancel"
	HintChecklist = "↑/↓: Navigate | space: Toggle | enter: Confirm | esc: Cancel"
	HintInput     = "enter: Confirm | esc: Cancel"
)

// Numeric Constants for Layout
const (
	MaxVisibleItems = 10 // Rows shown by the chooser before scrolling
	PortCharLimit   = 5  // "65535"
)

// Markers
const (
	MarkerCursor    = "❯"
	MarkerChecked   = "[x]"
	MarkerUnchecked = "[ ]"
	MarkerDone      = "✔"
)

// Lipgloss Colors
const (
	ColorSelectedFg = "229"
	ColorSelectedBg = "57"
	ColorTitle      = "14"  // Cyan for titles
	ColorHelp       = "245" // Grey for help text
	ColorError      = "9"   // Red for errors
	ColorSuccess    = "10"  // Green for confirmations
	ColorMatch      = "212" // Pink for fuzzy match highlights
)
