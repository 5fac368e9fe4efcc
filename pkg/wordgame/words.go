package wordgame

// CommonWords is a small built-in vocabulary used by the self-play arena
// and by rollout simulation when no external validator is attached. The
// real game supplies legal candidates from its own dictionary; this list
// only has to be broad enough to keep training games interesting.
var CommonWords = []string{
	"ACE", "AGE", "AID", "AIM", "AIR", "ALE", "ANT", "APE", "ARC", "ARM",
	"ART", "ATE", "BAD", "BAG", "BAN", "BAR", "BAT", "BED", "BEE", "BET",
	"BIG", "BIN", "BIT", "BOA", "BOG", "BOX", "BUS", "CAB", "CAN", "CAP",
	"CAR", "CAT", "COB", "COD", "COG", "CON", "COT", "CUB", "CUE", "CUP",
	"CUT", "DAB", "DAM", "DEN", "DIG", "DIM", "DIN", "DOG", "DOT", "DUE",
	"EAR", "EAT", "EGG", "EGO", "ELF", "END", "ERA", "EYE", "FAN", "FAR",
	"FAT", "FEE", "FEW", "FIG", "FIN", "FIT", "FOG", "FOX", "FUN", "GAP",
	"GAS", "GEL", "GEM", "GET", "GIN", "GOT", "GUM", "GUN", "GUT", "HAM",
	"HAT", "HEN", "HIT", "HOG", "HOT", "HUB", "HUE", "HUT", "ICE", "INK",
	"ION", "IRE", "JAM", "JAR", "JET", "JOB", "JOG", "KEG", "KEY", "KIN",
	"LAB", "LAG", "LAP", "LAW", "LEG", "LET", "LID", "LIP", "LOG", "LOT",
	"MAN", "MAP", "MAT", "MEN", "MET", "MOB", "MUD", "MUG", "NAP", "NET",
	"NEW", "NOD", "NOT", "NUT", "OAK", "OAR", "OAT", "ODE", "OIL", "ONE",
	"ORB", "ORE", "OWL", "PAD", "PAN", "PAW", "PEA", "PEG", "PEN", "PET",
	"PIE", "PIG", "PIN", "PIT", "POD", "POT", "PUB", "RAG", "RAM", "RAN",
	"RAT", "RAW", "RED", "RIB", "RID", "RIG", "RIM", "ROB", "ROD", "ROT",
	"ROW", "RUB", "RUG", "RUM", "RUN", "SAD", "SAG", "SAP", "SAT", "SAW",
	"SEA", "SET", "SIN", "SIP", "SIT", "SIX", "SKY", "SON", "SUM", "SUN",
	"TAB", "TAG", "TAN", "TAP", "TAR", "TEA", "TEN", "TIE", "TIN", "TIP",
	"TOE", "TON", "TOP", "TOY", "TUB", "TUG", "URN", "USE", "VAN", "VAT",
	"VET", "VIA", "VOW", "WAR", "WAX", "WEB", "WET", "WIG", "WIN", "WIT",
	"WON", "YAK", "YAM", "YES", "YET", "ZIP", "ZOO",
	"ACID", "AREA", "ATOM", "BARN", "BEAN", "BEAR", "BIRD", "BOAT", "BONE",
	"CAGE", "CAKE", "CALM", "CARD", "CARE", "CART", "CASE", "CAST", "COAL",
	"COAT", "COIN", "COLD", "CORD", "CORE", "CORN", "CRAB", "DARK", "DART",
	"DEAL", "DEAR", "DEER", "DICE", "DIRT", "DOME", "DOOR", "DRUM", "DUNE",
	"DUST", "EARN", "EAST", "EDGE", "FACE", "FARM", "FATE", "FERN", "FIRE",
	"FISH", "FLAG", "FOAM", "FORK", "FORM", "FORT", "GAIN", "GATE", "GEAR",
	"GOAT", "GOLD", "GRID", "HAIL", "HAND", "HARE", "HEAP", "HEAT", "HERO",
	"HIVE", "HOLE", "HORN", "IRON", "LAKE", "LAND", "LANE", "LEAF", "LIME",
	"LINE", "LION", "LOAF", "LOAN", "MAZE", "MEAL", "MINE", "MINT", "MOLE",
	"MOON", "MOTH", "NAIL", "NEST", "NOTE", "OVEN", "PAGE", "PALM", "PARK",
	"PATH", "PEAR", "PINE", "PLUM", "POND", "PORT", "RAIL", "RAIN", "RICE",
	"RING", "ROAD", "ROCK", "ROPE", "ROSE", "RUIN", "SAIL", "SALT", "SAND",
	"SEAL", "SEAT", "SEED", "SHIP", "SILK", "SNOW", "SOIL", "SONG", "STAR",
	"STEM", "TANK", "TEAM", "TEAR", "TENT", "TIDE", "TOAD", "TONE", "TRAY",
	"TREE", "VASE", "VINE", "WAVE", "WIND", "WING", "WIRE", "WOLF", "WOOD",
	"WOOL", "WORM", "YARD", "YEAR", "ZERO", "ZONE",
	"APPLE", "BEACH", "BOARD", "BRAIN", "BREAD", "CABIN", "CAROL", "CATALOG",
	"CHAIR", "CHARM", "CIDER", "CLAIM", "CLEAN", "CLOUD", "CORAL", "CRANE",
	"CREAM", "DRAIN", "EAGLE", "EARTH", "FIELD", "FLAME", "GRAIN", "GRAPE",
	"GREEN", "HEART", "HONEY", "HORSE", "HOUSE", "LEMON", "LIGHT", "MAPLE",
	"MELON", "MOUSE", "OCEAN", "ONION", "ORGAN", "PAINT", "PEARL", "PIANO",
	"PLAIN", "PLANT", "RIVER", "SLATE", "SMILE", "SNAIL", "STEAM", "STONE",
	"STORM", "TIGER", "TRAIL", "TRAIN", "WATER", "WHALE", "WHEAT",
}

// LegalWords filters the built-in vocabulary to words formable from the
// given pool.
func LegalWords(letters []rune) []string {
	var out []string
	for _, w := range CommonWords {
		if CanForm(w, letters) {
			out = append(out, w)
		}
	}
	return out
}
