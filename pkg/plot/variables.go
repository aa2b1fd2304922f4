package plot

import (
	"fmt"

	"github.com/vjranagit/omfseries/pkg/types"
)

// Variable is a diag variable with known display metadata
type Variable string

const (
	Temperature      Variable = "t"
	SurfacePressure  Variable = "ps"
	SpecificHumidity Variable = "q"
)

// VariableInfo is what the chart shows for a variable
type VariableInfo struct {
	Variable Variable
	Name     string
	Units    string
}

// LookupVariable resolves v; anything outside the known set is ErrUnknownVariable
func LookupVariable(v string) (VariableInfo, error) {
	switch Variable(v) {
	case Temperature:
		return VariableInfo{Variable: Temperature, Name: "Temperature", Units: "Degrees Fahrenheit"}, nil
	case SurfacePressure:
		return VariableInfo{Variable: SurfacePressure, Name: "Surface Pressure", Units: "Pascals"}, nil
	case SpecificHumidity:
		return VariableInfo{Variable: SpecificHumidity, Name: "Specific Humidity", Units: "G Water Vapor per KG of Air"}, nil
	default:
		return VariableInfo{}, fmt.Errorf("%w: %q (known: t, ps, q)", types.ErrUnknownVariable, v)
	}
}

// Title is the chart title for the variable
func (vi VariableInfo) Title() string {
	return vi.Name + " DA Time Series Plot"
}
