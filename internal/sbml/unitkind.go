package sbml

// UnitKind is one of the SBML base units.
type UnitKind int

const (
	UnitKindInvalid UnitKind = iota
	UnitKindAmpere
	UnitKindAvogadro
	UnitKindBecquerel
	UnitKindCandela
	UnitKindCelsius
	UnitKindCoulomb
	UnitKindDimensionless
	UnitKindFarad
	UnitKindGram
	UnitKindGray
	UnitKindHenry
	UnitKindHertz
	UnitKindItem
	UnitKindJoule
	UnitKindKatal
	UnitKindKelvin
	UnitKindKilogram
	UnitKindLiter
	UnitKindLitre
	UnitKindLumen
	UnitKindLux
	UnitKindMeter
	UnitKindMetre
	UnitKindMole
	UnitKindNewton
	UnitKindOhm
	UnitKindPascal
	UnitKindRadian
	UnitKindSecond
	UnitKindSiemens
	UnitKindSievert
	UnitKindSteradian
	UnitKindTesla
	UnitKindVolt
	UnitKindWatt
	UnitKindWeber
)

var unitKindNames = [...]string{
	UnitKindInvalid:       "invalid",
	UnitKindAmpere:        "ampere",
	UnitKindAvogadro:      "avogadro",
	UnitKindBecquerel:     "becquerel",
	UnitKindCandela:       "candela",
	UnitKindCelsius:       "celsius",
	UnitKindCoulomb:       "coulomb",
	UnitKindDimensionless: "dimensionless",
	UnitKindFarad:         "farad",
	UnitKindGram:          "gram",
	UnitKindGray:          "gray",
	UnitKindHenry:         "henry",
	UnitKindHertz:         "hertz",
	UnitKindItem:          "item",
	UnitKindJoule:         "joule",
	UnitKindKatal:         "katal",
	UnitKindKelvin:        "kelvin",
	UnitKindKilogram:      "kilogram",
	UnitKindLiter:         "liter",
	UnitKindLitre:         "litre",
	UnitKindLumen:         "lumen",
	UnitKindLux:           "lux",
	UnitKindMeter:         "meter",
	UnitKindMetre:         "metre",
	UnitKindMole:          "mole",
	UnitKindNewton:        "newton",
	UnitKindOhm:           "ohm",
	UnitKindPascal:        "pascal",
	UnitKindRadian:        "radian",
	UnitKindSecond:        "second",
	UnitKindSiemens:       "siemens",
	UnitKindSievert:       "sievert",
	UnitKindSteradian:     "steradian",
	UnitKindTesla:         "tesla",
	UnitKindVolt:          "volt",
	UnitKindWatt:          "watt",
	UnitKindWeber:         "weber",
}

func (k UnitKind) String() string {
	if k < 0 || int(k) >= len(unitKindNames) {
		return unitKindNames[UnitKindInvalid]
	}
	return unitKindNames[k]
}

// ParseUnitKind maps an SBML unit name to its kind. Unknown names,
// including "invalid" itself, yield UnitKindInvalid and false.
func ParseUnitKind(s string) (UnitKind, bool) {
	for k, name := range unitKindNames {
		if UnitKind(k) != UnitKindInvalid && name == s {
			return UnitKind(k), true
		}
	}
	return UnitKindInvalid, false
}
