package models

import (
	"math/bits"
	"strings"
)

// Category is a bucket flag. Registration takes exactly one flag; iteration
// and systems take a mask of several.
type Category uint8

const (
	CategoryNone          Category = 0
	CategoryPlayer        Category = 1 << 0
	CategoryMob           Category = 1 << 1
	CategoryDynamicObject Category = 1 << 2
	CategoryStaticObject  Category = 1 << 3
	CategoryVehicle       Category = 1 << 4
	CategoryEffect        Category = 1 << 5
	CategoryAll           Category = 0xFF
)

// Categories lists the concrete flags in declaration order.
var Categories = []Category{
	CategoryPlayer,
	CategoryMob,
	CategoryDynamicObject,
	CategoryStaticObject,
	CategoryVehicle,
	CategoryEffect,
}

var categoryNames = map[Category]string{
	CategoryPlayer:        "player",
	CategoryMob:           "mob",
	CategoryDynamicObject: "dynamic_object",
	CategoryStaticObject:  "static_object",
	CategoryVehicle:       "vehicle",
	CategoryEffect:        "effect",
}

// IsSingle reports whether c is exactly one declared flag.
func (c Category) IsSingle() bool {
	if bits.OnesCount8(uint8(c)) != 1 {
		return false
	}
	_, ok := categoryNames[c]
	return ok
}

// Intersects reports whether c and mask share any flag.
func (c Category) Intersects(mask Category) bool {
	return c&mask != 0
}

func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryAll:
		return "all"
	}
	if name, ok := categoryNames[c]; ok {
		return name
	}
	var parts []string
	for _, flag := range Categories {
		if c&flag != 0 {
			parts = append(parts, categoryNames[flag])
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}

// ParseCategory resolves a single category by name.
func ParseCategory(name string) (Category, bool) {
	for c, n := range categoryNames {
		if n == name {
			return c, true
		}
	}
	return CategoryNone, false
}
