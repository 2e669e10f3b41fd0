package optimize

import (
	"encoding/json"
	"testing"
)

const (
	json1 = "{\"a\":7.2,\"b\":1.17e-22,\"c\":0,\"d \\\"!\":0.999999}"
)

func TestMarshalParameters(tst *testing.T) {
	var pars FloatParameters
	a := 7.2
	b := 1.17e-22
	c := 0.0
	d := 0.999999
	pars.Append(NewBasicFloatParameter(&a, "a"))
	pars.Append(NewBasicFloatParameter(&b, "b"))
	pars.Append(NewBasicFloatParameter(&c, "c"))
	pars.Append(NewBasicFloatParameter(&d, "d \"!"))
	j, err := json.Marshal(pars)
	if err != nil {
		tst.Error("Error: ", err)
	}
	if string(j) != json1 {
		tst.Errorf("Incorrect encoded json value. Expected:\n'%v'\n got\n'%v'", json1, string(j))
	}
}

func TestUnmarshalParameters(tst *testing.T) {
	var pars FloatParameters
	a := 1.0
	b := 1.0
	c := 1.0
	d := 1.0
	pars.Append(NewBasicFloatParameter(&a, "a"))
	pars.Append(NewBasicFloatParameter(&b, "b"))
	pars.Append(NewBasicFloatParameter(&c, "c"))
	pars.Append(NewBasicFloatParameter(&d, "d \"!"))
	err := json.Unmarshal([]byte(json1), &pars)
	if err != nil {
		tst.Error("Error: ", err)
	}
	j, err := json.Marshal(pars)
	if string(j) != json1 {
		tst.Errorf("Incorrect encoded json value. Expected:\n'%v'\n got\n'%v'", json1, string(j))
	}
}

func TestParameterBounds(tst *testing.T) {
	var pars FloatParameters
	a, b := 1.0, 2.0
	pars.Append(NewBoundedFloatParameter(&a, "a", 0, 1.5))
	pars.Append(NewBasicFloatParameter(&b, "b"))

	if !pars.InRange() {
		tst.Error("Parameters should be in range")
	}
	if pars.ValuesInRange([]float64{2, 0}) {
		tst.Error("Value 2 is outside of [0, 1.5]")
	}
	if err := pars.SetValues([]float64{1}); err == nil {
		tst.Error("Expected an error for a wrong number of values")
	}
	if err := pars.SetValues([]float64{0.5, -3}); err != nil || a != 0.5 || b != -3 {
		tst.Error("Values were not set:", err, a, b)
	}
	m := pars.Map()
	if m["a"] != 0.5 || m["b"] != -3 {
		tst.Error("Incorrect map:", m)
	}
}
