package property

// LED property and command numbers as reported and accepted by the module firmware.
const (
	LEDRed   Kind = 2
	LEDGreen Kind = 3
	LEDBlue  Kind = 4

	LEDSetRGB CommandKind = 16
)

// Button property numbers. Buttons accept no commands.
const (
	ButtonClicked       Kind = 2
	ButtonDoubleClicked Kind = 3
	ButtonPressed       Kind = 4
	ButtonToggled       Kind = 5
)

// colorRange bounds every LED channel.
var colorRange = Range{Min: 0, Max: 255}

// boolRange bounds button state flags.
var boolRange = Range{Min: 0, Max: 1}

// LEDDescriptors returns the led property table.
//
// The single channels are written by re-sending the whole colour with
// SET_RGB, so they share its command number.
func LEDDescriptors() []Descriptor {
	return []Descriptor{
		{Name: "red", Module: ModuleLED, Property: LEDRed, Command: LEDSetRGB, Cardinality: 1, Range: colorRange},
		{Name: "green", Module: ModuleLED, Property: LEDGreen, Command: LEDSetRGB, Cardinality: 1, Range: colorRange},
		{Name: "blue", Module: ModuleLED, Property: LEDBlue, Command: LEDSetRGB, Cardinality: 1, Range: colorRange},
		{Name: "rgb", Module: ModuleLED, Command: LEDSetRGB, Cardinality: 3, Range: colorRange,
			Components: []string{"red", "green", "blue"}},
	}
}

// ButtonDescriptors returns the button property table.
func ButtonDescriptors() []Descriptor {
	return []Descriptor{
		{Name: "clicked", Module: ModuleButton, Property: ButtonClicked, Cardinality: 1, Range: boolRange},
		{Name: "double_clicked", Module: ModuleButton, Property: ButtonDoubleClicked, Cardinality: 1, Range: boolRange},
		{Name: "pressed", Module: ModuleButton, Property: ButtonPressed, Cardinality: 1, Range: boolRange},
		{Name: "toggled", Module: ModuleButton, Property: ButtonToggled, Cardinality: 1, Range: boolRange},
	}
}

// DefaultRegistry returns a registry holding every built-in module kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(LEDDescriptors()...)
	r.MustRegister(ButtonDescriptors()...)
	return r
}
