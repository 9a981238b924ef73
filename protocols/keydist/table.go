package keydist

import (
	"github.com/taurusgroup/rss-runtime/pkg/keys"
	"github.com/taurusgroup/rss-runtime/pkg/party"
)

// Owned is a key generated by its only holder. It never leaves that party.
type Owned struct {
	Name  keys.Name
	Owner party.ID
}

// Transfer moves the value of a shared key from one holder to another.
// The party From is the source of truth, the party To overwrites its own value.
type Transfer struct {
	Name     keys.Name
	From, To party.ID
}

var (
	// OwnedKeys lists the uniquely owned keys and the party generating each of them.
	OwnedKeys = []Owned{
		{Name: keys.KeyA, Owner: party.A},
		{Name: keys.KeyB, Owner: party.B},
		{Name: keys.KeyC, Owner: party.C},
		{Name: keys.KeyCD, Owner: party.C},
	}

	// SharedKeys are generated locally by every party before the transfers.
	SharedKeys = []keys.Name{keys.KeyAB, keys.KeyAC, keys.KeyBC, keys.Global}

	// Transfers is the ordered list of transfers synchronizing the shared keys.
	// C distributes the global key.
	Transfers = []Transfer{
		{Name: keys.KeyAB, From: party.A, To: party.B},
		{Name: keys.KeyAC, From: party.A, To: party.C},
		{Name: keys.KeyBC, From: party.B, To: party.C},
		{Name: keys.Global, From: party.C, To: party.A},
		{Name: keys.Global, From: party.C, To: party.B},
	}
)

// Holders returns the sorted parties which know the key name once distribution has completed.
func Holders(name keys.Name) party.IDSlice {
	holders := make([]party.ID, 0, 3)
	add := func(id party.ID) {
		for _, h := range holders {
			if h == id {
				return
			}
		}
		holders = append(holders, id)
	}
	for _, o := range OwnedKeys {
		if o.Name == name {
			add(o.Owner)
		}
	}
	for _, t := range Transfers {
		if t.Name == name {
			add(t.From)
			add(t.To)
		}
	}
	return party.NewIDSlice(holders)
}

// Holds returns true if id knows the key name once distribution has completed.
func Holds(id party.ID, name keys.Name) bool {
	return Holders(name).Contains(id)
}
