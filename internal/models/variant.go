package models

// Variant is a purchasable SKU with its own stock counter. Price is in minor
// units and may be absent for catalog entries that are not sellable yet.
type Variant struct {
	ID    uint64
	SKU   string
	Name  string
	Price *int64
	Stock int32
}
