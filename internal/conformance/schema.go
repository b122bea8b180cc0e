package conformance

// Suite is one YAML test file.
type Suite struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Setup runs in every case's session before its inputs.
	Setup string `yaml:"setup,omitempty"`
	Cases []Case `yaml:"tests"`
}

// Case feeds a sequence of inputs to one session, as a REPL would, and
// checks the outcome of the last one. Earlier inputs must succeed.
type Case struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"` // bool or string
	Code        string      `yaml:"code,omitempty"`
	Inputs      []string    `yaml:"inputs,omitempty"`
	Expect      Expectation `yaml:"expect"`
}

// Expectation defines what result is expected from a case.
type Expectation struct {
	Value   interface{} `yaml:"value,omitempty"`   // exact match on the top of the stack
	Type    string      `yaml:"type,omitempty"`    // none, bool, integer, float, string
	Empty   bool        `yaml:"empty,omitempty"`   // nothing left on the stack
	Output  *string     `yaml:"output,omitempty"`  // everything printed
	Compile bool        `yaml:"compile,omitempty"` // a compile error
	Fault   string      `yaml:"fault,omitempty"`   // runtime fault class, e.g. division_by_zero
	Message string      `yaml:"message,omitempty"` // exact error text
	Globals []string    `yaml:"globals,omitempty"` // names bound afterwards
}

// Sources returns the inputs in the order they are run. Code, when set,
// runs last.
func (c *Case) Sources() []string {
	out := append([]string(nil), c.Inputs...)
	if c.Code != "" {
		out = append(out, c.Code)
	}
	return out
}

// IsSkipped returns true if this case should be skipped
func (c *Case) IsSkipped() (bool, string) {
	switch v := c.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
	case string:
		return true, v
	}
	return false, ""
}
