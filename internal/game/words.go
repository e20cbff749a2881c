package game

// WordList is the pool the board generator draws from. Must stay well above
// BoardSize so consecutive games rarely repeat a full board.
var WordList = []string{
	"anchor", "apple", "arrow", "badge", "bank", "barrel", "beach", "bear",
	"bell", "belt", "bench", "berry", "blade", "board", "bottle", "bridge",
	"brush", "button", "cable", "camp", "candle", "canyon", "castle", "cave",
	"chain", "chair", "chalk", "charge", "check", "chest", "church", "circle",
	"cliff", "clock", "cloud", "coach", "coast", "collar", "comet", "compass",
	"copper", "cotton", "court", "crane", "cross", "crown", "crystal", "cycle",
	"dance", "desert", "diamond", "dragon", "dream", "drill", "drum", "eagle",
	"engine", "fair", "fall", "fence", "field", "figure", "film", "fire",
	"flag", "flood", "flute", "forest", "frame", "frost", "garden", "gate",
	"ghost", "giant", "glass", "glove", "gold", "grace", "green", "guard",
	"hammer", "harbor", "hawk", "heart", "honey", "hook", "horn", "horse",
	"hotel", "hunter", "iron", "island", "ivory", "jet", "judge", "jungle",
	"kite", "knight", "lab", "ladder", "lake", "laser", "lemon", "light",
	"lion", "lock", "log", "march", "marble", "mark", "match", "maze",
	"mercury", "mine", "mirror", "monk", "moon", "mountain", "mouse", "needle",
	"net", "night", "note", "ocean", "olive", "opera", "orange", "organ",
	"palm", "paper", "park", "pearl", "pilot", "pipe", "pirate", "pitch",
	"plane", "plate", "pool", "port", "press", "prince", "pyramid", "queen",
	"rail", "rain", "ranch", "ring", "river", "robot", "rock", "root",
	"rose", "round", "ruler", "saddle", "salt", "satellite", "scale", "school",
	"screen", "seal", "shadow", "shark", "shell", "ship", "shoe", "shore",
	"silver", "sketch", "slip", "smoke", "snow", "sound", "spider", "spring",
	"spy", "staff", "stage", "star", "station", "steel", "stick", "stone",
	"storm", "stream", "string", "switch", "table", "tank", "temple", "thief",
	"thunder", "tiger", "torch", "tower", "track", "train", "trap", "triangle",
	"trunk", "tunnel", "valley", "vault", "wall", "watch", "wave", "well",
	"whale", "wheel", "wind", "window", "wing", "winter", "wolf", "yard",
}
