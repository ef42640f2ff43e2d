package snapshot

import "github.com/nextlevelbuilder/gopair/pkg/protocol"

// Cache bundles the outbound snapshots of one push scheduler. Aliases are
// kept per recipient UID since each pair gets its own alias storage.
type Cache struct {
	IPC        Value[protocol.IPCData]
	Appearance Value[protocol.AppearanceData]
	Wardrobe   Value[protocol.WardrobeData]
	Toybox     Value[protocol.ToyboxData]
	Aliases    Keyed[string, protocol.AliasData]
}

// Reset clears every snapshot.
func (c *Cache) Reset() {
	c.IPC.Reset()
	c.Appearance.Reset()
	c.Wardrobe.Reset()
	c.Toybox.Reset()
	c.Aliases.Reset()
}

// Composite assembles the last known data of every category for a pair
// coming online. Alias data is included only for the recipient.
func (c *Cache) Composite(recipient string) protocol.CompositeData {
	var out protocol.CompositeData
	if v, ok := c.Appearance.Last(); ok {
		out.Appearance = &v
	}
	if v, ok := c.Wardrobe.Last(); ok {
		out.Wardrobe = &v
	}
	if v, ok := c.Toybox.Last(); ok {
		out.Toybox = &v
	}
	if v, ok := c.Aliases.Last(recipient); ok {
		out.Aliases = map[string]protocol.AliasData{recipient: v}
	}
	return out
}
