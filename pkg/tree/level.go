package tree

// Level is one tier of the inventory hierarchy.
type Level int8

const (
	LevelCategory Level = iota
	LevelSubcategory
	LevelCommonName
	LevelItem
)

// String returns the stable wire/storage name for the level.
func (l Level) String() string {
	switch l {
	case LevelCategory:
		return "category"
	case LevelSubcategory:
		return "subcategory"
	case LevelCommonName:
		return "common_name"
	case LevelItem:
		return "item"
	}
	return "unknown"
}

// ParseLevel maps a stored level name back to its enum value.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "category":
		return LevelCategory, true
	case "subcategory":
		return LevelSubcategory, true
	case "common_name":
		return LevelCommonName, true
	case "item":
		return LevelItem, true
	}
	return LevelCategory, false
}

// Chain is the ordered list of levels a tab renders, top to leaf. Most tabs
// use all four levels; contract-style tabs skip the subcategory tier.
type Chain []Level

// DefaultChain is the full four-level hierarchy.
func DefaultChain() Chain {
	return Chain{LevelCategory, LevelSubcategory, LevelCommonName, LevelItem}
}

// SkipSubcategoryChain is the three-level hierarchy used by tabs that go
// straight from category to common name.
func SkipSubcategoryChain() Chain {
	return Chain{LevelCategory, LevelCommonName, LevelItem}
}

// First returns the root level of the chain.
func (c Chain) First() Level {
	if len(c) == 0 {
		return LevelCategory
	}
	return c[0]
}

// Leaf returns the last level of the chain. Leaf nodes never expand.
func (c Chain) Leaf() Level {
	if len(c) == 0 {
		return LevelItem
	}
	return c[len(c)-1]
}

// Next returns the level below l in this chain, or false at the leaf or
// when l is not part of the chain.
func (c Chain) Next(l Level) (Level, bool) {
	for i, lv := range c {
		if lv == l {
			if i+1 < len(c) {
				return c[i+1], true
			}
			return l, false
		}
	}
	return l, false
}

// Contains reports whether l is part of this chain.
func (c Chain) Contains(l Level) bool {
	for _, lv := range c {
		if lv == l {
			return true
		}
	}
	return false
}
