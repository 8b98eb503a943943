package domain

// Model families with UV (Capture Ray) and cold-mist/water-wash systems.
var (
	uvModels = map[string]bool{
		"UVF": true, "UVI": true, "USR-S": true, "USR-F": true, "USR-M": true, "UWF": true, "UWI": true,
	}
	cmwModels = map[string]bool{
		"CMWI": true, "CMWF": true, "CMW-FMOD": true, "CMW-IMOD": true, "CMW-F": true, "CMW-I": true,
	}
)

var (
	captureJetKSA = KSATable{1: 71.8, 2: 143.6, 3: 215.4, 4: 287.2, 5: 359.0, 6: 430.8}
	lowProxKSA    = KSATable{1: 67.7, 2: 135.4, 3: 203.1, 4: 270.8, 5: 338.5, 6: 406.2}
	captureRayKSA = KSATable{1: 49.7, 2: 99.4, 3: 149.1, 4: 198.8, 5: 248.5, 6: 298.2}
	waterWashKSA  = KSATable{1: 65.5, 2: 131.0, 3: 196.5, 4: 262.0, 5: 327.5, 6: 393.0}

	coldMistLength = LengthTable{1000: 115, 1500: 172.5, 2000: 230, 2500: 287.5, 3000: 345}
	steamLength    = LengthTable{1000: 161, 1500: 241.5, 2000: 322, 2500: 402.5, 3000: 483, 3500: 563.5, 4000: 644}
)

func defaultModels() []ModelDescriptor {
	ksa := func(family string, table KSATable, codes ...string) []ModelDescriptor {
		out := make([]ModelDescriptor, 0, len(codes))
		for _, c := range codes {
			out = append(out, ModelDescriptor{Code: c, Family: family, Classification: SectionBased, Coefficients: table})
		}
		return out
	}
	length := func(family string, table LengthTable, codes ...string) []ModelDescriptor {
		out := make([]ModelDescriptor, 0, len(codes))
		for _, c := range codes {
			out = append(out, ModelDescriptor{Code: c, Family: family, Classification: LengthBased, Coefficients: table})
		}
		return out
	}

	var models []ModelDescriptor
	models = append(models, ksa("Capture Jet", captureJetKSA, "KVF", "KVI", "KCH-F", "KCH-I")...)
	models = append(models, ksa("Capture Jet low proximity", lowProxKSA, "KSR-S", "KSR-F", "KSR-M")...)
	models = append(models, ksa("Capture Ray", captureRayKSA, "UVF", "UVI")...)
	models = append(models, ksa("Capture Ray low proximity", lowProxKSA, "USR-S", "USR-F", "USR-M")...)
	models = append(models, ksa("Water wash", waterWashKSA, "KWF", "KWI", "UWF", "UWI", "CMW-FMOD", "CMW-IMOD")...)
	models = append(models, length("Cold mist", coldMistLength, "CMW-F", "CMW-I")...)
	models = append(models, length("Steam", steamLength, "KVD", "KVV")...)
	models = append(models,
		ModelDescriptor{Code: "CXW", Family: "CXW", Classification: GrillAnemometer, Coefficients: FreeAreaFormula{}},
		ModelDescriptor{Code: "CMWF", Family: "Cold mist slot", Classification: SlotAnemometerSupplyExtract, Coefficients: FreeAreaFormula{}},
		ModelDescriptor{Code: "CMWI", Family: "Cold mist slot", Classification: SlotAnemometerExtractOnly, Coefficients: FreeAreaFormula{}},
	)
	return models
}

var defaultRegistry = NewRegistry(defaultModels()...)

// DefaultRegistry returns the registry of every supported canopy model.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
