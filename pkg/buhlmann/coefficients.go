package buhlmann

import "fmt"

// Compartments is the number of tissue compartments in the ZH-L16 family
const Compartments = 16

// Algorithm selects one of the published ZH-L16 coefficient sets
type Algorithm int

const (
	ZHL16A Algorithm = iota
	ZHL16B
	ZHL16C
)

func (a Algorithm) String() string {
	switch a {
	case ZHL16A:
		return "ZH-L16A"
	case ZHL16B:
		return "ZH-L16B"
	case ZHL16C:
		return "ZH-L16C"
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// ParseAlgorithm accepts "a", "zhl16b", "ZH-L16C" and similar spellings
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "A", "a", "zhl16a", "ZHL16A", "ZH-L16A":
		return ZHL16A, nil
	case "B", "b", "zhl16b", "ZHL16B", "ZH-L16B":
		return ZHL16B, nil
	case "C", "c", "zhl16c", "ZHL16C", "ZH-L16C", "":
		return ZHL16C, nil
	}
	return ZHL16C, fmt.Errorf("unknown algorithm %q", s)
}

// compartment holds the half-time and M-value coefficients of one inert gas
// in one tissue.
type compartment struct {
	halfTime float64
	a        float64
	b        float64
}

type coefficientSet struct {
	nitrogen [Compartments]compartment
	helium   [Compartments]compartment
}

// Helium values are shared by all three variants.
var heliumZHL16 = [Compartments]compartment{
	{1.88, 1.6189, 0.4770},
	{3.02, 1.3830, 0.5747},
	{4.72, 1.1919, 0.6527},
	{6.99, 1.0458, 0.7223},
	{10.21, 0.9220, 0.7582},
	{14.48, 0.8205, 0.7957},
	{20.53, 0.7305, 0.8279},
	{29.11, 0.6502, 0.8553},
	{41.20, 0.5950, 0.8757},
	{55.19, 0.5545, 0.8903},
	{70.69, 0.5333, 0.8997},
	{90.34, 0.5189, 0.9073},
	{115.29, 0.5181, 0.9122},
	{147.42, 0.5176, 0.9171},
	{188.24, 0.5172, 0.9217},
	{240.03, 0.5119, 0.9267},
}

// ZH-L16A uses compartment 1 (4 minutes) rather than 1b.
var heliumZHL16A = func() [Compartments]compartment {
	he := heliumZHL16
	he[0] = compartment{1.51, 1.7424, 0.4245}
	return he
}()

var nitrogenHalfTimes = [Compartments]float64{
	5.0, 8.0, 12.5, 18.5, 27.0, 38.3, 54.3, 77.0,
	109.0, 146.0, 187.0, 239.0, 305.0, 390.0, 498.0, 635.0,
}

var nitrogenB = [Compartments]float64{
	0.5578, 0.6514, 0.7222, 0.7825, 0.8126, 0.8434, 0.8693, 0.8910,
	0.9092, 0.9222, 0.9319, 0.9403, 0.9477, 0.9544, 0.9602, 0.9653,
}

var nitrogenA = map[Algorithm][Compartments]float64{
	ZHL16A: {
		1.2599, 1.0000, 0.8618, 0.7562, 0.6667, 0.5933, 0.5282, 0.4701,
		0.4187, 0.3798, 0.3497, 0.3223, 0.2971, 0.2737, 0.2523, 0.2327,
	},
	ZHL16B: {
		1.1696, 1.0000, 0.8618, 0.7562, 0.6667, 0.5600, 0.4947, 0.4500,
		0.4187, 0.3798, 0.3497, 0.3223, 0.2850, 0.2737, 0.2523, 0.2327,
	},
	ZHL16C: {
		1.1696, 1.0000, 0.8618, 0.7562, 0.6200, 0.5043, 0.4410, 0.4000,
		0.3750, 0.3500, 0.3295, 0.3065, 0.2835, 0.2610, 0.2480, 0.2327,
	},
}

func coefficients(algorithm Algorithm) coefficientSet {
	a, ok := nitrogenA[algorithm]
	if !ok {
		panic(fmt.Sprintf("buhlmann: no coefficients for %v", algorithm))
	}

	var set coefficientSet
	for i := 0; i < Compartments; i++ {
		set.nitrogen[i] = compartment{halfTime: nitrogenHalfTimes[i], a: a[i], b: nitrogenB[i]}
	}
	set.helium = heliumZHL16

	if algorithm == ZHL16A {
		set.nitrogen[0] = compartment{halfTime: 4.0, a: 1.2599, b: 0.5050}
		set.helium = heliumZHL16A
	}
	return set
}
