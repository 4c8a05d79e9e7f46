package domain

import (
	"fmt"
	"strings"
	"time"
)

type StorageArea struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  Icon   `json:"icon"`
	Color Color  `json:"color"`
	Order int    `json:"order"`
}

type PantryItem struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Quantity      int        `json:"quantity"`
	StorageAreaID string     `json:"storageAreaId"`
	CreatedAt     time.Time  `json:"createdAt"`
	IsOpened      bool       `json:"isOpened"`
	OpenedAt      *time.Time `json:"openedAt,omitempty"`
	ExpiryDate    *Date      `json:"expiryDate,omitempty"`
}

// Icon is the display glyph of a storage area.
type Icon string

const (
	IconRefrigerator Icon = "refrigerator"
	IconSnowflake    Icon = "snowflake"
	IconPackage      Icon = "package"
	IconArchive      Icon = "archive"
	IconBox          Icon = "box"
	IconWine         Icon = "wine"
	IconCookie       Icon = "cookie"
	IconApple        Icon = "apple"
	IconCarrot       Icon = "carrot"
	IconHome         Icon = "home"
)

var icons = []Icon{
	IconRefrigerator, IconSnowflake, IconPackage, IconArchive, IconBox,
	IconWine, IconCookie, IconApple, IconCarrot, IconHome,
}

// Icons lists every accepted icon in display order.
func Icons() []Icon {
	return append([]Icon(nil), icons...)
}

func (i Icon) Valid() bool {
	for _, known := range icons {
		if i == known {
			return true
		}
	}
	return false
}

// Color is the accent color of a storage area.
type Color string

const (
	ColorBlue   Color = "blue"
	ColorCyan   Color = "cyan"
	ColorAmber  Color = "amber"
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorPurple Color = "purple"
	ColorPink   Color = "pink"
	ColorOrange Color = "orange"
	ColorSlate  Color = "slate"
)

var colors = []Color{
	ColorBlue, ColorCyan, ColorAmber, ColorGreen, ColorRed,
	ColorPurple, ColorPink, ColorOrange, ColorSlate,
}

// Colors lists every accepted color in display order.
func Colors() []Color {
	return append([]Color(nil), colors...)
}

func (c Color) Valid() bool {
	for _, known := range colors {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultAreas are seeded when the persistence layer holds no storage areas.
func DefaultAreas() []StorageArea {
	return []StorageArea{
		{ID: "fridge", Name: "Fridge", Icon: IconRefrigerator, Color: ColorBlue, Order: 0},
		{ID: "freezer", Name: "Freezer", Icon: IconSnowflake, Color: ColorCyan, Order: 1},
		{ID: "pantry", Name: "Pantry", Icon: IconPackage, Color: ColorAmber, Order: 2},
	}
}

// AreaUpdate is a single field change applied to a storage area. The order
// of an area is never changed through an update.
type AreaUpdate interface {
	applyTo(area *StorageArea) error
}

// SetAreaName renames an area. The name is trimmed and must not be empty.
type SetAreaName string

func (u SetAreaName) applyTo(area *StorageArea) error {
	name := strings.TrimSpace(string(u))
	if name == "" {
		return fmt.Errorf("area name required: %w", ErrValidation)
	}
	area.Name = name
	return nil
}

type SetAreaIcon Icon

func (u SetAreaIcon) applyTo(area *StorageArea) error {
	if !Icon(u).Valid() {
		return fmt.Errorf("unknown icon %q: %w", string(u), ErrValidation)
	}
	area.Icon = Icon(u)
	return nil
}

type SetAreaColor Color

func (u SetAreaColor) applyTo(area *StorageArea) error {
	if !Color(u).Valid() {
		return fmt.Errorf("unknown color %q: %w", string(u), ErrValidation)
	}
	area.Color = Color(u)
	return nil
}

// ApplyAreaUpdates returns a copy of area with every update applied. The
// input is left untouched when any update is rejected.
func ApplyAreaUpdates(area StorageArea, updates ...AreaUpdate) (StorageArea, error) {
	updated := area
	for _, u := range updates {
		if u == nil {
			continue
		}
		if err := u.applyTo(&updated); err != nil {
			return area, err
		}
	}
	return updated, nil
}
