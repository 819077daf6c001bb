package strategy

// ParamKind is the declared type of a strategy parameter. Formatting
// dispatches exhaustively on the kind at encode time; there is no
// runtime shape inspection.
type ParamKind int

const (
	// KindPercent formats a fractional percentage into integer basis
	// points (value x 100, rounded).
	KindPercent ParamKind = iota
	// KindFiatCurrency scales a fiat value to an integer minor-unit
	// representation using the parameter's declared scale.
	KindFiatCurrency
	// KindBoolean passes the value through.
	KindBoolean
	// KindSelect emits the selected option's index, not its label.
	KindSelect
)

// Param declares one strategy parameter: its type, the contract group it
// belongs to, and an optional default.
type Param struct {
	ID      string
	Kind    ParamKind
	Group   string
	Scale   int64    // fiat minor-unit scale; 0 means the default of 100
	Options []string // select option labels, ordered by index
	Default interface{}
}

// Group maps a set of parameters to one named setter operation. A
// group's call is emitted only when every member parameter resolves.
type Group struct {
	Name        string
	Operation   string
	Description string
}

// Strategy declares a parameter set, its contract groups, and named
// templates of fixed values.
type Strategy struct {
	ID        string
	Params    []Param // declared order is argument order within a group
	Groups    []Group // declared order is emission order
	Templates map[string]map[string]interface{}
}

// TemplateCustom is the sentinel template name meaning "use the
// caller's values merged over the strategy defaults".
const TemplateCustom = "custom"
