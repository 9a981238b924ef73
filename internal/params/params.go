package params

const (
	SecParam = 256
	SecBytes = SecParam / 8

	// KeyBytes is the length of every key string in a key schedule.
	KeyBytes = SecBytes

	// Parties is the only supported number of parties.
	// The replicated key schedule does not generalize to other counts.
	Parties = 3

	// Family is the protocol family tag which drives key distribution.
	Family = "3PC"

	// Prime is the default cardinality of the small field used by the
	// secure-comparison lookup tables.
	Prime = 67

	// Precision is the default number of fractional bits of the fixed-point encoding.
	Precision = 13

	// BasePort is the default port of party A. Party i listens on BasePort+i.
	BasePort = 32000
)
