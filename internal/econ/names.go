package econ

import "math/rand"

var namePrefixes = []string{
	"Super", "Mega", "Ultra", "Hyper", "Neo",
	"Quantum", "Pixel", "Retro", "Cyber", "Myth",
}

var nameSuffixes = []string{
	"Quest", "Runner", "Tycoon", "Saga", "Odyssey",
	"Legends", "Maker", "Arena", "Raid", "Factory",
}

// RandomProjectName picks a working title for a new project.
func RandomProjectName(roll *rand.Rand) string {
	return namePrefixes[roll.Intn(len(namePrefixes))] + " " + nameSuffixes[roll.Intn(len(nameSuffixes))]
}
